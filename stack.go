package memrealm

import "unsafe"

const stackHeaderSize = unsafe.Sizeof(stackHeader{})

// StackAllocator allocates and frees in strict last-in-first-out order
// from a single cursor. Alloc advances the cursor and records where to
// rewind it to on Dealloc; when built with the default (LIFO-check)
// header, Dealloc also asserts that blocks are freed in the order they
// were allocated.
type StackAllocator struct {
	base    unsafe.Pointer
	size    uintptr
	current uintptr
	nextID  uint32
}

// NewStackAllocator reserves and commits size bytes of backing memory
// and returns a StackAllocator over it.
func NewStackAllocator(size int) *StackAllocator {
	assert(size > 0, "NewStackAllocator: size must be positive")
	base, ok := vmReserve(size)
	if !ok {
		panic("memrealm: failed to reserve address space for StackAllocator")
	}
	if _, ok := vmCommit(base, size); !ok {
		vmRelease(base)
		panic("memrealm: failed to commit address space for StackAllocator")
	}
	return &StackAllocator{base: base, size: uintptr(roundUpToPage(size)), current: uintptr(base)}
}

// Close releases the allocator's backing reservation.
func (a *StackAllocator) Close() {
	vmRelease(a.base)
	a.base = nil
	a.current = 0
	a.size = 0
}

func (a *StackAllocator) end() uintptr {
	return uintptr(a.base) + a.size
}

// Alloc advances the cursor past a new header and the requested block.
// The returned pointer P satisfies (P+offset) mod alignment == 0 — P
// itself need not be aligned when offset is nonzero, since offset bytes
// of header space sit between P and the block's own header. Reports
// ok=false if the allocator has no room left.
func (a *StackAllocator) Alloc(size, alignment, offset uintptr) (Block, bool) {
	assert(isPowerOfTwo(alignment), "StackAllocator.Alloc: alignment must be a power of two")

	cursorOffset := a.current - uintptr(a.base)

	minFront := a.current + stackHeaderSize + offset
	alignedFront := alignUp(minFront, alignment)
	userPtr := alignedFront - offset
	blockEnd := userPtr + size

	if blockEnd > a.end() {
		return Block{}, false
	}

	headerAddr := userPtr - stackHeaderSize - offset
	header := (*stackHeader)(unsafe.Pointer(headerAddr))
	header.allocOffset = uint32(cursorOffset)
	header.allocSize = uint32(size)
	header.setAllocID(a.nextID)
	a.nextID++

	a.current = blockEnd

	return Block{Ptr: unsafe.Pointer(userPtr), Size: size, hdr: unsafe.Pointer(header)}, true
}

// Dealloc rewinds the cursor to where it stood before the matching
// Alloc. When built with the LIFO-check header, it first asserts that b
// was the most recently allocated, still-live block.
func (a *StackAllocator) Dealloc(b Block) {
	header := (*stackHeader)(b.hdr)
	if stackHeaderHasLifoID {
		assert(header.lifoID() == a.nextID-1, "StackAllocator.Dealloc: blocks must be freed in LIFO order")
	}
	a.nextID--
	a.current = uintptr(a.base) + uintptr(header.allocOffset)
}

// Reset rewinds the cursor to the beginning of the backing region.
func (a *StackAllocator) Reset() {
	a.current = uintptr(a.base)
	a.nextID = 0
}

// AllocationSize returns the size recorded in b's header.
func (a *StackAllocator) AllocationSize(b Block) uintptr {
	header := (*stackHeader)(b.hdr)
	return uintptr(header.allocSize)
}
