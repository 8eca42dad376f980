package memrealm

import "unsafe"

// DoubleEndedStackAllocator is a StackAllocator with two independent
// cursors growing toward each other from opposite ends of a single
// backing region: front allocations (Alloc/Dealloc) behave exactly like
// StackAllocator; back allocations (AllocBack/DeallocBack) grow downward
// from the high end. An allocation on either side that would cross the
// other side's cursor fails instead of overlapping it.
type DoubleEndedStackAllocator struct {
	base         unsafe.Pointer
	size         uintptr
	currentFront uintptr
	currentBack  uintptr
	frontNextID  uint32
	backNextID   uint32
}

// NewDoubleEndedStackAllocator reserves and commits size bytes of
// backing memory and returns a DoubleEndedStackAllocator over it.
func NewDoubleEndedStackAllocator(size int) *DoubleEndedStackAllocator {
	assert(size > 0, "NewDoubleEndedStackAllocator: size must be positive")
	base, ok := vmReserve(size)
	if !ok {
		panic("memrealm: failed to reserve address space for DoubleEndedStackAllocator")
	}
	rounded := roundUpToPage(size)
	if _, ok := vmCommit(base, rounded); !ok {
		vmRelease(base)
		panic("memrealm: failed to commit address space for DoubleEndedStackAllocator")
	}
	return &DoubleEndedStackAllocator{
		base:         base,
		size:         uintptr(rounded),
		currentFront: uintptr(base),
		currentBack:  uintptr(base) + uintptr(rounded),
	}
}

// Close releases the allocator's backing reservation.
func (a *DoubleEndedStackAllocator) Close() {
	vmRelease(a.base)
	*a = DoubleEndedStackAllocator{}
}

// Alloc allocates from the front cursor, exactly like StackAllocator,
// failing instead of crossing the current back cursor. The returned
// pointer P satisfies (P+offset) mod alignment == 0 — P itself need not
// be aligned when offset is nonzero.
func (a *DoubleEndedStackAllocator) Alloc(size, alignment, offset uintptr) (Block, bool) {
	assert(isPowerOfTwo(alignment), "DoubleEndedStackAllocator.Alloc: alignment must be a power of two")

	cursorOffset := a.currentFront - uintptr(a.base)

	minFront := a.currentFront + stackHeaderSize + offset
	alignedFront := alignUp(minFront, alignment)
	userPtr := alignedFront - offset
	blockEnd := userPtr + size

	if blockEnd > a.currentBack {
		return Block{}, false
	}

	headerAddr := userPtr - stackHeaderSize - offset
	header := (*stackHeader)(unsafe.Pointer(headerAddr))
	header.allocOffset = uint32(cursorOffset)
	header.allocSize = uint32(size)
	header.setAllocID(a.frontNextID)
	a.frontNextID++

	a.currentFront = blockEnd

	return Block{Ptr: unsafe.Pointer(userPtr), Size: size, hdr: unsafe.Pointer(header)}, true
}

// Dealloc releases a block previously returned by Alloc (the front
// side). Passing a block allocated by AllocBack is a programmer error.
func (a *DoubleEndedStackAllocator) Dealloc(b Block) {
	assert(uintptr(b.Ptr) < a.currentBack, "DoubleEndedStackAllocator.Dealloc: block was allocated via AllocBack")
	header := (*stackHeader)(b.hdr)
	if stackHeaderHasLifoID {
		assert(header.lifoID() == a.frontNextID-1, "DoubleEndedStackAllocator.Dealloc: blocks must be freed in LIFO order")
	}
	a.frontNextID--
	a.currentFront = uintptr(a.base) + uintptr(header.allocOffset)
}

// AllocBack allocates from the back cursor, growing toward the front,
// failing instead of crossing the current front cursor. The returned
// pointer P satisfies (P+offset) mod alignment == 0 — P itself need not
// be aligned when offset is nonzero.
func (a *DoubleEndedStackAllocator) AllocBack(size, alignment, offset uintptr) (Block, bool) {
	assert(isPowerOfTwo(alignment), "DoubleEndedStackAllocator.AllocBack: alignment must be a power of two")

	oldBack := a.currentBack

	maxFront := oldBack - size + offset
	alignedFront := alignDown(maxFront, alignment)
	userPtr := alignedFront - offset
	headerAddr := userPtr - stackHeaderSize - offset

	if headerAddr < a.currentFront {
		return Block{}, false
	}

	header := (*stackHeader)(unsafe.Pointer(headerAddr))
	header.allocOffset = uint32(oldBack - uintptr(a.base))
	header.allocSize = uint32(size)
	header.setAllocID(a.backNextID)
	a.backNextID++

	a.currentBack = headerAddr

	return Block{Ptr: unsafe.Pointer(userPtr), Size: size, hdr: unsafe.Pointer(header)}, true
}

// DeallocBack releases a block previously returned by AllocBack. Passing
// a block allocated by Alloc is a programmer error.
func (a *DoubleEndedStackAllocator) DeallocBack(b Block) {
	assert(uintptr(b.Ptr) >= a.currentBack, "DoubleEndedStackAllocator.DeallocBack: block was allocated via Alloc")
	header := (*stackHeader)(b.hdr)
	if stackHeaderHasLifoID {
		assert(header.lifoID() == a.backNextID-1, "DoubleEndedStackAllocator.DeallocBack: blocks must be freed in LIFO order")
	}
	a.backNextID--
	a.currentBack = uintptr(a.base) + uintptr(header.allocOffset)
}

// Reset rewinds both cursors to the extremes of the backing region.
func (a *DoubleEndedStackAllocator) Reset() {
	a.currentFront = uintptr(a.base)
	a.currentBack = uintptr(a.base) + a.size
	a.frontNextID = 0
	a.backNextID = 0
}

// AllocationSize returns the size recorded in b's header, valid for
// blocks from either side.
func (a *DoubleEndedStackAllocator) AllocationSize(b Block) uintptr {
	header := (*stackHeader)(b.hdr)
	return uintptr(header.allocSize)
}
