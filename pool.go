package memrealm

import "unsafe"

// poolHeader is the fixed-size per-allocation header written ahead of
// every block handed out by PoolAllocator.
type poolHeader struct {
	allocSize uint32
}

const poolHeaderSize = unsafe.Sizeof(poolHeader{})

// roundToNextMultiple rounds num up to the next multiple of multiple.
func roundToNextMultiple(num, multiple uintptr) uintptr {
	if multiple == 0 {
		return num
	}
	remainder := num % multiple
	if remainder == 0 {
		return num
	}
	return num + multiple - remainder
}

// calculateMinimalBlockSize returns the smallest block size, a multiple
// of maxAlignment, that can hold maxSize bytes.
func calculateMinimalBlockSize(maxSize, maxAlignment uintptr) uintptr {
	if maxSize < maxAlignment {
		return maxAlignment
	}
	return roundToNextMultiple(maxSize, maxAlignment)
}

// PoolAllocator hands out fixed-size, fixed-alignment blocks from a free
// list built once at construction time. All blocks are the same size, so
// Alloc does no per-call alignment work beyond what was baked into the
// pool's layout.
type PoolAllocator struct {
	base            unsafe.Pointer
	size            uintptr
	maxElementSize  uintptr
	maxElementAlign uintptr
	offset          uintptr
	blockSize       uintptr
	blockSizeClass  int
	free            freeList
}

// NewPoolAllocator reserves and commits enough memory to hand out
// elementCount blocks, each large enough for maxElementSize bytes aligned
// to maxElementAlignment, plus the allocator's own per-block header and
// offset bytes of caller-reserved header space (used by TypedRealm to
// carve out room for bounds-checker canaries inside every block).
func NewPoolAllocator(maxElementSize uintptr, elementCount int, maxElementAlignment, offset uintptr) *PoolAllocator {
	assert(elementCount > 0, "NewPoolAllocator: elementCount must be positive")
	assert(isPowerOfTwo(maxElementAlignment), "NewPoolAllocator: alignment must be a power of two")

	blockMinSize := calculateMinimalBlockSize(maxElementSize+poolHeaderSize+offset, maxElementAlignment)
	requiredSize := int(blockMinSize)*elementCount + int(maxElementAlignment)

	base, ok := vmReserve(requiredSize)
	if !ok {
		panic("memrealm: failed to reserve address space for PoolAllocator")
	}
	rounded := roundUpToPage(requiredSize)
	if _, ok := vmCommit(base, rounded); !ok {
		vmRelease(base)
		panic("memrealm: failed to commit address space for PoolAllocator")
	}

	minUser := uintptr(base) + poolHeaderSize + offset
	alignedUser := alignUp(minUser, maxElementAlignment)
	firstBlock := alignedUser - poolHeaderSize - offset
	regionEnd := uintptr(base) + uintptr(rounded)

	return &PoolAllocator{
		base:            base,
		size:            uintptr(rounded),
		maxElementSize:  maxElementSize,
		maxElementAlign: maxElementAlignment,
		offset:          offset,
		blockSize:       blockMinSize,
		blockSizeClass:  sizeClassBits(int(blockMinSize)),
		free:            newFreeList(unsafe.Pointer(firstBlock), unsafe.Pointer(regionEnd), blockMinSize),
	}
}

// BlockSizeClass returns the bit length of the pool's fixed block size, a
// cheap diagnostic bucket for grouping pools of similar block size (e.g.
// in logging or metrics) without comparing exact byte counts.
func (a *PoolAllocator) BlockSizeClass() int {
	return a.blockSizeClass
}

// Close releases the allocator's backing reservation.
func (a *PoolAllocator) Close() {
	vmRelease(a.base)
	*a = PoolAllocator{}
}

// Alloc pops a block off the free list. size must not exceed the pool's
// maxElementSize and alignment must not exceed its maxElementAlignment:
// both were fixed at construction time. Reports ok=false if the pool is
// exhausted.
func (a *PoolAllocator) Alloc(size, alignment, _ uintptr) (Block, bool) {
	assert(size <= a.maxElementSize, "PoolAllocator.Alloc: size %d exceeds element size %d", size, a.maxElementSize)
	assert(alignment <= a.maxElementAlign, "PoolAllocator.Alloc: alignment %d exceeds element alignment %d", alignment, a.maxElementAlign)

	block := a.free.getBlock()
	if block == nil {
		return Block{}, false
	}

	header := (*poolHeader)(block)
	header.allocSize = uint32(size)
	userPtr := unsafe.Pointer(uintptr(block) + poolHeaderSize + a.offset)

	return Block{Ptr: userPtr, Size: size, hdr: unsafe.Pointer(header)}, true
}

// Dealloc returns b's block to the free list.
func (a *PoolAllocator) Dealloc(b Block) {
	a.free.returnBlock(b.hdr)
}

// Reset rebuilds the free list from scratch, releasing every outstanding
// allocation at once.
func (a *PoolAllocator) Reset() {
	minUser := uintptr(a.base) + poolHeaderSize + a.offset
	alignedUser := alignUp(minUser, a.maxElementAlign)
	firstBlock := alignedUser - poolHeaderSize - a.offset
	regionEnd := uintptr(a.base) + a.size
	a.free = newFreeList(unsafe.Pointer(firstBlock), unsafe.Pointer(regionEnd), a.blockSize)
}

// AllocationSize returns the size recorded in b's header.
func (a *PoolAllocator) AllocationSize(b Block) uintptr {
	header := (*poolHeader)(b.hdr)
	return uintptr(header.allocSize)
}
