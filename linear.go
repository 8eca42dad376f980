package memrealm

import "unsafe"

// linearHeader is the fixed-size per-allocation header written ahead of
// every block handed out by LinearAllocator.
type linearHeader struct {
	allocSize uint32
}

const linearHeaderSize = unsafe.Sizeof(linearHeader{})

// LinearAllocator is a bump allocator: Alloc advances a single cursor and
// never reclaims individual blocks. Dealloc is a no-op; Reset rewinds the
// cursor to the start of the backing region, invalidating every
// outstanding allocation at once.
type LinearAllocator struct {
	base       unsafe.Pointer
	size       uintptr
	current    uintptr
}

// NewLinearAllocator reserves and commits size bytes of backing memory
// and returns a LinearAllocator over it.
func NewLinearAllocator(size int) *LinearAllocator {
	assert(size > 0, "NewLinearAllocator: size must be positive")
	base, ok := vmReserve(size)
	if !ok {
		panic("memrealm: failed to reserve address space for LinearAllocator")
	}
	if _, ok := vmCommit(base, size); !ok {
		vmRelease(base)
		panic("memrealm: failed to commit address space for LinearAllocator")
	}
	return &LinearAllocator{base: base, size: uintptr(roundUpToPage(size)), current: uintptr(base)}
}

// Close releases the allocator's backing reservation. The allocator must
// not be used afterwards.
func (a *LinearAllocator) Close() {
	vmRelease(a.base)
	a.base = nil
	a.current = 0
	a.size = 0
}

func (a *LinearAllocator) end() uintptr {
	return uintptr(a.base) + a.size
}

// Alloc advances the cursor past the block's header, any alignment
// padding and offset bytes, and the size-byte block itself. The returned
// pointer P satisfies (P+offset) mod alignment == 0 — P itself need not
// be aligned when offset is nonzero, since offset bytes of header space
// (reserved for a bounds checker's front canary, say) sit between P and
// the block's own header.
func (a *LinearAllocator) Alloc(size, alignment, offset uintptr) (Block, bool) {
	assert(isPowerOfTwo(alignment), "LinearAllocator.Alloc: alignment must be a power of two")

	minFront := a.current + linearHeaderSize + offset
	alignedFront := alignUp(minFront, alignment)
	userPtr := alignedFront - offset
	blockEnd := userPtr + size

	if blockEnd > a.end() {
		return Block{}, false
	}

	headerAddr := userPtr - linearHeaderSize - offset
	header := (*linearHeader)(unsafe.Pointer(headerAddr))
	header.allocSize = uint32(size)

	a.current = blockEnd

	return Block{Ptr: unsafe.Pointer(userPtr), Size: size, hdr: unsafe.Pointer(header)}, true
}

// Dealloc is a no-op: LinearAllocator cannot release individual blocks.
func (a *LinearAllocator) Dealloc(Block) {}

// Reset rewinds the cursor to the beginning of the backing region.
func (a *LinearAllocator) Reset() {
	a.current = uintptr(a.base)
}

// AllocationSize returns the size recorded in b's header.
func (a *LinearAllocator) AllocationSize(b Block) uintptr {
	header := (*linearHeader)(b.hdr)
	return uintptr(header.allocSize)
}
