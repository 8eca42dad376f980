package memrealm

import "unsafe"

// Block is a handle to a single allocation: the pointer returned to the
// caller together with the usable size backing it. It carries no
// ownership semantics of its own — RawAllocator implementations decide
// what Dealloc(Block) does with it.
type Block struct {
	Ptr  unsafe.Pointer
	Size uintptr

	// hdr points at the allocator-private header immediately associated
	// with this block. It is opaque outside the allocator that produced
	// the Block and lets Dealloc/AllocationSize recover bookkeeping
	// state without recomputing offset/alignment arithmetic.
	hdr unsafe.Pointer
}

// IsEmpty reports whether b is the zero Block, as returned by a failed
// allocation.
func (b Block) IsEmpty() bool {
	return b.Ptr == nil
}

// RawAllocator is the capability shared by all four allocation
// strategies (linear, stack, double-ended stack, pool). alignment must
// be a power of two; offset is the number of bytes of caller-owned
// header space requested immediately before the returned pointer (used
// by BasicRealm to reserve room for bounds-checker canaries without the
// allocator needing to know about canaries at all).
type RawAllocator interface {
	// Alloc reserves size bytes aligned to alignment, preceded by offset
	// bytes of unmanaged header space, returning the Block starting at
	// the aligned, offset user pointer. Reports an empty Block on
	// failure (out of space), never an error — allocation failure under
	// these strategies is an expected, recoverable outcome.
	Alloc(size, alignment, offset uintptr) (Block, bool)

	// Dealloc releases a Block previously returned by Alloc. Strategies
	// that cannot release individual blocks (Linear) treat this as a
	// no-op, matching spec.md's description of that allocator.
	Dealloc(b Block)

	// Reset releases every outstanding allocation at once, rewinding the
	// allocator to its initial empty state.
	Reset()

	// AllocationSize returns the usable size of a Block previously
	// returned by Alloc, as recorded in its header.
	AllocationSize(b Block) uintptr
}

// Owning is a single-owner RAII wrapper around a value allocated from a
// RawAllocator, the Go analogue of the original project's AllocatorBox. Go
// has no destructors, so callers are expected to `defer o.Free()` instead
// of relying on scope exit; Free is not idempotent and must be called at
// most once, mirroring the original's single-drop Rust semantics.
type Owning[T any] struct {
	ptr   *T
	block Block
	alloc RawAllocator
}

// AllocOwning allocates room for a single T from alloc, aligned to
// alignment, constructs it in place from value, and wraps it in an
// Owning descriptor. Reports ok=false if the allocator is out of space.
func AllocOwning[T any](alloc RawAllocator, value T, alignment, offset uintptr) (Owning[T], bool) {
	var zero T
	size := unsafe.Sizeof(zero)
	b, ok := alloc.Alloc(size, alignment, offset)
	if !ok {
		return Owning[T]{}, false
	}
	p := (*T)(b.Ptr)
	*p = value
	return Owning[T]{ptr: p, block: b, alloc: alloc}, true
}

// Get returns a pointer to the owned value.
func (o *Owning[T]) Get() *T {
	return o.ptr
}

// Release returns the owned value by copy and deallocates its backing
// Block. The Owning must not be used afterwards.
func (o *Owning[T]) Release() T {
	value := *o.ptr
	o.Free()
	return value
}

// Free deallocates the backing Block. Calling Free more than once, or
// after Release, is a programmer error.
func (o *Owning[T]) Free() {
	assert(o.alloc != nil, "Owning.Free: already freed or zero value")
	o.alloc.Dealloc(o.block)
	o.ptr = nil
	o.alloc = nil
}
