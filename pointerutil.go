package memrealm

import (
	"os"

	"github.com/cznic/mathutil"
)

// osPageSize is the OS virtual memory page size, queried once at package
// init time the way the teacher's memory.go initializes its own
// osPageSize package variable.
var osPageSize = os.Getpagesize()

// isPowerOfTwo reports whether n is a power of two. Zero is not.
func isPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// isAlignedTo reports whether address is a multiple of alignment.
// alignment must be a power of two.
func isAlignedTo(address, alignment uintptr) bool {
	assert(isPowerOfTwo(alignment), "alignment %d is not a power of two", alignment)
	return address&(alignment-1) == 0
}

// alignUp rounds address up to the next multiple of alignment.
// alignment must be a power of two.
func alignUp(address, alignment uintptr) uintptr {
	assert(isPowerOfTwo(alignment), "alignment %d is not a power of two", alignment)
	return (address + alignment - 1) &^ (alignment - 1)
}

// alignDown rounds address down to the previous multiple of alignment.
// alignment must be a power of two.
func alignDown(address, alignment uintptr) uintptr {
	assert(isPowerOfTwo(alignment), "alignment %d is not a power of two", alignment)
	return address &^ (alignment - 1)
}

// roundUpToPage rounds size up to the next multiple of the OS page size.
func roundUpToPage(size int) int {
	ps := PageSize()
	return (size + ps - 1) &^ (ps - 1)
}

// sizeClassBits returns the bit length of n, used to bucket pool block
// sizes into diagnostic size classes the way the teacher's allocator
// buckets its free lists by power-of-two slot size.
func sizeClassBits(n int) int {
	return mathutil.BitLen(n)
}
