package memrealm

import "unsafe"

func uintptrOf(p unsafe.Pointer) uintptr {
	return uintptr(p)
}
