package memrealm

import "unsafe"

// Handle identifies a single entry in a HandleMap. It stays valid across
// insertions and removals of other entries, and is safe to hold onto
// after its entry has been removed: IsValid and At detect a stale handle
// by comparing its generation against the slot's current generation
// instead of dereferencing a dangling index.
type Handle struct {
	idx        uint32
	generation uint32
}

// handleData is the per-slot bookkeeping record backing a HandleMap's
// sparse array. denseIdx is meaningful only while the slot is in use;
// generation survives the slot being freed and reused, since the free
// list only threads its next-pointer through the first machine word and
// generation is never placed there.
type handleData struct {
	denseIdx   uint32
	_pad       uint32
	generation uint32
}

const handleDataSize = unsafe.Sizeof(handleData{})

// HandleMap is a generational slot map: Insert returns a stable Handle,
// Remove invalidates it, and live values are kept packed in a dense array
// so iterating a HandleMap touches only live elements contiguously, with
// O(1) insert/remove via swap-to-last-element removal.
//
// As with Vector, T must not contain Go-GC-managed pointers: the dense
// array lives outside the Go heap.
type HandleMap[T any] struct {
	denseBase  unsafe.Pointer
	sparseBase unsafe.Pointer
	metaBase   unsafe.Pointer
	free       freeList
	size       int
	maxSize    int
}

// NewHandleMap reserves and commits storage for up to maxSize live
// entries.
func NewHandleMap[T any](maxSize int) *HandleMap[T] {
	assert(maxSize > 0, "NewHandleMap: maxSize must be positive")

	var zero T
	denseBytes := roundUpToPage(maxSize * int(unsafe.Sizeof(zero)))
	sparseBytes := roundUpToPage(maxSize * int(handleDataSize))
	metaBytes := roundUpToPage(maxSize * int(unsafe.Sizeof(uint32(0))))

	denseBase := reserveAndCommit(denseBytes)
	sparseBase := reserveAndCommit(sparseBytes)
	metaBase := reserveAndCommit(metaBytes)

	hm := &HandleMap[T]{
		denseBase:  denseBase,
		sparseBase: sparseBase,
		metaBase:   metaBase,
		maxSize:    maxSize,
	}
	hm.rebuildFreeList()
	return hm
}

func reserveAndCommit(size int) unsafe.Pointer {
	base, ok := vmReserve(size)
	if !ok {
		panic("memrealm: failed to reserve address space for HandleMap")
	}
	if _, ok := vmCommit(base, size); !ok {
		vmRelease(base)
		panic("memrealm: failed to commit address space for HandleMap")
	}
	return base
}

func (m *HandleMap[T]) rebuildFreeList() {
	end := unsafe.Pointer(uintptr(m.sparseBase) + uintptr(m.maxSize)*handleDataSize)
	m.free = newFreeList(m.sparseBase, end, handleDataSize)
}

// Close releases the map's three backing reservations.
func (m *HandleMap[T]) Close() {
	if m.sparseBase == nil {
		return
	}
	vmRelease(m.denseBase)
	vmRelease(m.sparseBase)
	vmRelease(m.metaBase)
	*m = HandleMap[T]{}
}

func (m *HandleMap[T]) sparseAt(i uint32) *handleData {
	return (*handleData)(unsafe.Pointer(uintptr(m.sparseBase) + uintptr(i)*handleDataSize))
}

func (m *HandleMap[T]) metaAt(i int) *uint32 {
	return (*uint32)(unsafe.Pointer(uintptr(m.metaBase) + uintptr(i)*unsafe.Sizeof(uint32(0))))
}

func (m *HandleMap[T]) denseAt(i int) *T {
	var zero T
	return (*T)(unsafe.Pointer(uintptr(m.denseBase) + uintptr(i)*unsafe.Sizeof(zero)))
}

// Len returns the number of live entries.
func (m *HandleMap[T]) Len() int { return m.size }

// MaxSize returns the largest number of live entries this map can hold.
func (m *HandleMap[T]) MaxSize() int { return m.maxSize }

// Slice returns the live entries as a Go slice view over the map's dense
// array, in unspecified but stable (until the next Insert/Remove) order.
func (m *HandleMap[T]) Slice() []T {
	if m.size == 0 {
		return nil
	}
	return unsafe.Slice((*T)(m.denseBase), m.size)
}

// Insert adds item and returns a Handle identifying it. It is a
// programmer error to insert past MaxSize.
func (m *HandleMap[T]) Insert(item T) Handle {
	assert(m.size < m.maxSize, "HandleMap.Insert: map is at capacity %d", m.maxSize)
	assert(!m.free.isEmpty(), "HandleMap.Insert: free list exhausted")

	slot := m.free.getBlock()
	sparseIdx := uint32((uintptr(slot) - uintptr(m.sparseBase)) / handleDataSize)

	hd := (*handleData)(slot)
	hd.denseIdx = uint32(m.size)

	*m.metaAt(m.size) = sparseIdx
	*m.denseAt(m.size) = item
	m.size++

	return Handle{idx: sparseIdx, generation: hd.generation}
}

// Remove deletes the entry identified by h, if it is still live, and
// returns its value. ok is false if h is stale (already removed, or from
// a different generation of this slot).
func (m *HandleMap[T]) Remove(h Handle) (value T, ok bool) {
	assert(h.idx < uint32(m.maxSize), "HandleMap.Remove: handle index %d out of range", h.idx)

	hd := m.sparseAt(h.idx)
	if hd.generation != h.generation {
		return value, false
	}

	denseIdx := hd.denseIdx
	value = *m.denseAt(int(denseIdx))

	lastIdx := uint32(m.size - 1)
	if denseIdx != lastIdx {
		*m.denseAt(int(denseIdx)) = *m.denseAt(int(lastIdx))
		movedSparseIdx := *m.metaAt(int(lastIdx))
		*m.metaAt(int(denseIdx)) = movedSparseIdx
		m.sparseAt(movedSparseIdx).denseIdx = denseIdx
	}
	m.size--
	hd.generation++
	m.free.returnBlock(unsafe.Pointer(hd))

	return value, true
}

// IsValid reports whether h still identifies a live entry. It never
// panics, unlike At.
func (m *HandleMap[T]) IsValid(h Handle) bool {
	if h.idx >= uint32(m.maxSize) {
		return false
	}
	hd := m.sparseAt(h.idx)
	if hd.generation != h.generation {
		return false
	}
	return hd.denseIdx < uint32(m.size)
}

// At returns a pointer to the entry identified by h. It is a programmer
// error to call At with a stale handle; use IsValid to check first if
// that is expected.
func (m *HandleMap[T]) At(h Handle) *T {
	assert(m.IsValid(h), "HandleMap.At: stale or out-of-range handle")
	hd := m.sparseAt(h.idx)
	return m.denseAt(int(hd.denseIdx))
}

// Clear removes every entry, bumps the generation of every live slot so
// their handles become stale, and rebuilds the free list over the map's
// full slot range, so every slot (not just the ones below the previous
// size) is available for reuse.
func (m *HandleMap[T]) Clear() {
	for i := 0; i < m.size; i++ {
		m.sparseAt(*m.metaAt(i)).generation++
	}
	m.size = 0
	m.rebuildFreeList()
}
