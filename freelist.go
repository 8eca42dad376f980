package memrealm

import "unsafe"

// freeList is an intrusive singly-linked list threaded directly through
// raw memory: the first machine word of each free block stores the
// address of the next free block (or nil). It owns no memory itself and
// allocates nothing; it only rewires pointers already present in the
// range handed to newFreeList.
type freeList struct {
	head unsafe.Pointer
}

// newFreeList builds a free list over the half-open byte range
// [begin, end), splitting it into contiguous blocks of blockSize bytes and
// threading each one onto the list. blockSize must be at least the size
// of a pointer, since the list header is written into the block itself.
func newFreeList(begin, end unsafe.Pointer, blockSize uintptr) freeList {
	assert(blockSize >= unsafe.Sizeof(uintptr(0)), "freeList block size %d smaller than a pointer", blockSize)

	beginAddr := uintptr(begin)
	endAddr := uintptr(end)
	assert(endAddr >= beginAddr, "freeList range end before begin")

	fl := freeList{}
	count := (endAddr - beginAddr) / blockSize
	for i := count; i > 0; i-- {
		block := unsafe.Pointer(beginAddr + (i-1)*blockSize)
		*(*unsafe.Pointer)(block) = fl.head
		fl.head = block
	}
	return fl
}

// isEmpty reports whether the free list has no blocks left.
func (fl *freeList) isEmpty() bool {
	return fl.head == nil
}

// getBlock pops and returns the head block, or nil if the list is empty.
func (fl *freeList) getBlock() unsafe.Pointer {
	if fl.head == nil {
		return nil
	}
	block := fl.head
	fl.head = *(*unsafe.Pointer)(block)
	return block
}

// returnBlock pushes block back onto the free list.
func (fl *freeList) returnBlock(block unsafe.Pointer) {
	assert(block != nil, "returnBlock: nil block")
	*(*unsafe.Pointer)(block) = fl.head
	fl.head = block
}
