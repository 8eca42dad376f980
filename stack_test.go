package memrealm

import (
	"testing"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

func TestStackAllocatorSingleAllocation(t *testing.T) {
	a := NewStackAllocator(4096)
	defer a.Close()

	b, ok := a.Alloc(64, 8, 0)
	require.True(t, ok)
	require.EqualValues(t, 64, a.AllocationSize(b))
}

func TestStackAllocatorDeallocReusesMemory(t *testing.T) {
	a := NewStackAllocator(4096)
	defer a.Close()

	b, ok := a.Alloc(16, 8, 0)
	require.True(t, ok)

	marker := (*uint32)(b.Ptr)
	*marker = 0xDEADBEEF

	a.Dealloc(b)

	again, ok := a.Alloc(16, 8, 0)
	require.True(t, ok)
	require.Equal(t, b.Ptr, again.Ptr)
}

func TestStackAllocatorAllocationsDoNotInvalidatePrevious(t *testing.T) {
	a := NewStackAllocator(4096)
	defer a.Close()

	first, ok := a.Alloc(8, 8, 0)
	require.True(t, ok)
	*(*uint32)(first.Ptr) = 111

	second, ok := a.Alloc(8, 8, 0)
	require.True(t, ok)
	*(*uint32)(second.Ptr) = 222

	require.EqualValues(t, 111, *(*uint32)(first.Ptr))
	require.EqualValues(t, 222, *(*uint32)(second.Ptr))
}

func TestStackAllocatorReset(t *testing.T) {
	a := NewStackAllocator(4096)
	defer a.Close()

	first, ok := a.Alloc(16, 8, 0)
	require.True(t, ok)

	a.Reset()

	second, ok := a.Alloc(16, 8, 0)
	require.True(t, ok)
	require.Equal(t, first.Ptr, second.Ptr)
}

func TestStackAllocatorOutOfMemory(t *testing.T) {
	a := NewStackAllocator(PageSize())
	defer a.Close()

	_, ok := a.Alloc(uintptr(PageSize())*2, 8, 0)
	require.False(t, ok)
}

// TestStackAllocatorOffsetAndAlignment covers a nonzero offset combined
// with an alignment requirement greater than one: P itself need not be
// aligned, only P+offset.
func TestStackAllocatorOffsetAndAlignment(t *testing.T) {
	a := NewStackAllocator(1 << 16)
	defer a.Close()

	b, ok := a.Alloc(256, 16, 4)
	require.True(t, ok)
	require.False(t, isAlignedTo(uintptrOf(b.Ptr), 16))
	require.True(t, isAlignedTo(uintptrOf(b.Ptr)+4, 16))
}

// TestStackAllocatorRandomizedLIFO drives a sequence of push/pop
// decisions across a full-cycle PRNG permutation, the way the teacher's
// all_test.go drives its own randomized malloc/free round trips.
func TestStackAllocatorRandomizedLIFO(t *testing.T) {
	a := NewStackAllocator(1 << 16)
	defer a.Close()

	rng, err := mathutil.NewFC32(1, 4096, false)
	require.NoError(t, err)

	var stack []Block
	for i := 0; i < 2000; i++ {
		if len(stack) == 0 || rng.Next()%2 == 0 {
			size := uintptr(rng.Next()%64 + 1)
			b, ok := a.Alloc(size, 8, 0)
			if !ok {
				continue
			}
			stack = append(stack, b)
		} else {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			a.Dealloc(last)
		}
	}
	for i := len(stack) - 1; i >= 0; i-- {
		a.Dealloc(stack[i])
	}
}
