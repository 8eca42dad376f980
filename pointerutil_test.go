package memrealm

import "testing"

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[uintptr]bool{
		0:  false,
		1:  true,
		2:  true,
		3:  false,
		4:  true,
		15: false,
		16: true,
		1 << 20: true,
	}
	for n, want := range cases {
		if got := isPowerOfTwo(n); got != want {
			t.Errorf("isPowerOfTwo(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestAlignUp(t *testing.T) {
	if got := alignUp(0, 16); got != 0 {
		t.Errorf("alignUp(0,16) = %d, want 0", got)
	}
	if got := alignUp(1, 16); got != 16 {
		t.Errorf("alignUp(1,16) = %d, want 16", got)
	}
	if got := alignUp(16, 16); got != 16 {
		t.Errorf("alignUp(16,16) = %d, want 16", got)
	}
	if got := alignUp(17, 16); got != 32 {
		t.Errorf("alignUp(17,16) = %d, want 32", got)
	}
}

func TestAlignDown(t *testing.T) {
	if got := alignDown(15, 16); got != 0 {
		t.Errorf("alignDown(15,16) = %d, want 0", got)
	}
	if got := alignDown(16, 16); got != 16 {
		t.Errorf("alignDown(16,16) = %d, want 16", got)
	}
	if got := alignDown(31, 16); got != 16 {
		t.Errorf("alignDown(31,16) = %d, want 16", got)
	}
}

func TestRoundUpToPage(t *testing.T) {
	ps := PageSize()
	if got := roundUpToPage(1); got != ps {
		t.Errorf("roundUpToPage(1) = %d, want %d", got, ps)
	}
	if got := roundUpToPage(ps); got != ps {
		t.Errorf("roundUpToPage(page) = %d, want %d", got, ps)
	}
	if got := roundUpToPage(ps + 1); got != 2*ps {
		t.Errorf("roundUpToPage(page+1) = %d, want %d", got, 2*ps)
	}
}
