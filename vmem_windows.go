// +build windows

// Copyright 2024 The RustySpark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memrealm

import (
	"syscall"
	"unsafe"
)

const (
	memReserve  = 0x00002000
	memCommit   = 0x00001000
	memDecommit = 0x00004000
	memRelease  = 0x00008000

	pageNoAccess  = 0x01
	pageReadWrite = 0x04
)

var (
	modkernel32          = syscall.NewLazyDLL("kernel32.dll")
	procVirtualAlloc     = modkernel32.NewProc("VirtualAlloc")
	procVirtualFree      = modkernel32.NewProc("VirtualFree")
	procVirtualProtect   = modkernel32.NewProc("VirtualProtect")
)

var vmRegs = map[uintptr]int{}

// PageSize returns the OS virtual memory page size in bytes.
func PageSize() int {
	return osPageSize
}

// vmReserve reserves size bytes of address space without backing it with
// physical memory, via VirtualAlloc(MEM_RESERVE, PAGE_NOACCESS).
func vmReserve(size int) (unsafe.Pointer, bool) {
	if size <= 0 {
		return nil, false
	}
	size = roundUpToPage(size)
	r, _, _ := procVirtualAlloc.Call(0, uintptr(size), memReserve, pageNoAccess)
	if r == 0 {
		return nil, false
	}
	base := unsafe.Pointer(r)
	vmRegs[r] = size
	return base, true
}

// vmCommit grants read/write access to the sub-range [base, base+size) of
// a previous reservation via VirtualAlloc(MEM_COMMIT, PAGE_READWRITE).
// May be called repeatedly on adjacent, non-overlapping sub-ranges of the
// same reservation.
func vmCommit(base unsafe.Pointer, size int) (unsafe.Pointer, bool) {
	if size <= 0 {
		return nil, false
	}
	r, _, _ := procVirtualAlloc.Call(uintptr(base), uintptr(size), memCommit, pageReadWrite)
	if r == 0 {
		return nil, false
	}
	return unsafe.Pointer(r), true
}

// vmDecommit releases the physical backing of [base, base+size) via
// VirtualFree(MEM_DECOMMIT), without releasing the reservation itself.
func vmDecommit(base unsafe.Pointer, size int) {
	if size <= 0 {
		return
	}
	procVirtualFree.Call(uintptr(base), uintptr(size), memDecommit)
}

// vmRelease releases an entire reservation previously returned by
// vmReserve via VirtualFree(MEM_RELEASE).
func vmRelease(base unsafe.Pointer) {
	_, ok := vmRegs[uintptr(base)]
	if ok {
		delete(vmRegs, uintptr(base))
	}
	if !ok {
		return
	}
	procVirtualFree.Call(uintptr(base), 0, memRelease)
}
