package memrealm

import (
	"testing"
	"unsafe"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

type particle struct {
	lifetime float32
	speed    uint64
}

func TestPoolAllocatorSingleAllocation(t *testing.T) {
	var p particle
	a := NewPoolAllocator(unsafe.Sizeof(p), 16, 8, 0)
	defer a.Close()

	b, ok := a.Alloc(unsafe.Sizeof(p), 8, 0)
	require.True(t, ok)
	require.True(t, isAlignedTo(uintptrOf(b.Ptr), 8))
}

func TestPoolAllocatorMultipleAllocationsAligned(t *testing.T) {
	var p particle
	const count = 10
	a := NewPoolAllocator(unsafe.Sizeof(p), count, 16, 0)
	defer a.Close()

	var blocks []Block
	for i := 0; i < count; i++ {
		b, ok := a.Alloc(unsafe.Sizeof(p), 16, 0)
		require.True(t, ok)
		require.True(t, isAlignedTo(uintptrOf(b.Ptr), 16))
		blocks = append(blocks, b)
	}
}

func TestPoolAllocatorReturnsNoneOnExhaustion(t *testing.T) {
	var p particle
	const count = 4
	a := NewPoolAllocator(unsafe.Sizeof(p), count, 8, 0)
	defer a.Close()

	allocated := 0
	for i := 0; i < count; i++ {
		if _, ok := a.Alloc(unsafe.Sizeof(p), 8, 0); ok {
			allocated++
		}
	}
	require.GreaterOrEqual(t, allocated, count)

	for {
		if _, ok := a.Alloc(unsafe.Sizeof(p), 8, 0); !ok {
			break
		}
		allocated++
		if allocated > count*4 {
			t.Fatal("pool allocator never reported exhaustion")
		}
	}
}

func TestPoolAllocatorDeallocReturnsBlockToFreeList(t *testing.T) {
	var p particle
	a := NewPoolAllocator(unsafe.Sizeof(p), 4, 8, 0)
	defer a.Close()

	b, ok := a.Alloc(unsafe.Sizeof(p), 8, 0)
	require.True(t, ok)
	a.Dealloc(b)

	again, ok := a.Alloc(unsafe.Sizeof(p), 8, 0)
	require.True(t, ok)
	require.Equal(t, b.Ptr, again.Ptr)
}

func TestPoolAllocatorAllocationDoesNotInvalidatePrevious(t *testing.T) {
	var p particle
	a := NewPoolAllocator(unsafe.Sizeof(p), 4, 8, 0)
	defer a.Close()

	first, ok := a.Alloc(unsafe.Sizeof(p), 8, 0)
	require.True(t, ok)
	(*particle)(first.Ptr).lifetime = 1.5

	second, ok := a.Alloc(unsafe.Sizeof(p), 8, 0)
	require.True(t, ok)
	(*particle)(second.Ptr).lifetime = 2.5

	require.InDelta(t, 1.5, (*particle)(first.Ptr).lifetime, 0.0001)
	require.InDelta(t, 2.5, (*particle)(second.Ptr).lifetime, 0.0001)
}

// TestPoolAllocatorBlockSizeClass exercises the pool's block-size-class
// diagnostic: two pools whose elements round up to the same block size
// must report the same class, distinguishing it from exact byte counts.
func TestPoolAllocatorBlockSizeClass(t *testing.T) {
	var p particle
	a := NewPoolAllocator(unsafe.Sizeof(p), 4, 8, 0)
	defer a.Close()

	require.Greater(t, a.BlockSizeClass(), 0)

	b := NewPoolAllocator(unsafe.Sizeof(p), 4, 8, 0)
	defer b.Close()
	require.Equal(t, a.BlockSizeClass(), b.BlockSizeClass())
}

// TestPoolAllocatorRandomizedRoundTrip drives a sequence of random
// alloc/free decisions across a full-cycle PRNG permutation, mirroring
// TestStackAllocatorRandomizedLIFO for the pool allocator.
func TestPoolAllocatorRandomizedRoundTrip(t *testing.T) {
	var p particle
	const count = 256
	a := NewPoolAllocator(unsafe.Sizeof(p), count, 8, 0)
	defer a.Close()

	rng, err := mathutil.NewFC32(1, 4096, false)
	require.NoError(t, err)

	var live []Block
	for i := 0; i < 4000; i++ {
		if len(live) < count && (len(live) == 0 || rng.Next()%2 == 0) {
			b, ok := a.Alloc(unsafe.Sizeof(p), 8, 0)
			if !ok {
				continue
			}
			live = append(live, b)
		} else {
			idx := rng.Next() % len(live)
			a.Dealloc(live[idx])
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
		}
	}
	for _, b := range live {
		a.Dealloc(b)
	}
}
