// Copyright 2024 The RustySpark Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memrealm provides hand-rolled memory allocators and
// allocator-backed containers over raw virtual memory.
//
// The package targets latency-sensitive, single-threaded workloads (game
// engines, simulation loops) that want predictable allocation cost and
// explicit control over memory layout instead of the general-purpose Go
// allocator and its GC. Four allocation strategies are provided — linear,
// stack, double-ended stack and pool — each satisfying the RawAllocator
// capability and composable with a BoundsChecker (none or canary-based)
// into a BasicRealm or TypedRealm. Vector and HandleMap build on top of
// the virtual memory facade directly. Vector commits pages on demand from
// a single large reservation so that element addresses never move under
// growth; HandleMap commits its fixed-capacity storage up front.
//
// None of the types in this package are safe for concurrent use. None of
// them cooperate with the garbage collector: memory handed out by a
// RawAllocator lives outside the Go heap, so stored element types must
// not themselves hold pointers into the Go heap (see the warning on
// Vector and HandleMap for details).
package memrealm
