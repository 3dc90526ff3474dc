// Copyright 2025 The epochgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build go1.24 && !go1.26 && (amd64 || arm64)

// Fast goroutine ID extraction for Go 1.24/1.25 on amd64 and arm64.
//
// Go's register ABI dedicates a register to the current g (R14 on amd64, R28
// on arm64), so a tiny assembly stub returns the g pointer directly and the
// goid is read at a fixed offset.
//
// g struct layout (Go 1.24 and 1.25, identical where it matters here):
//
//	Field          Size    Offset
//	-----          ----    ------
//	stack          16      0
//	stackguard0    8       16
//	stackguard1    8       24
//	_panic         8       32
//	_defer         8       40
//	m              8       48
//	sched (gobuf)  48      56   (6 pointers: sp, pc, g, ctxt, ret, bp)
//	syscallsp      8       104
//	syscallpc      8       112
//	syscallbp      8       120
//	stktopsp       8       128
//	param          8       136
//	atomicstatus   4       144
//	stackLock      4       148
//	goid           8       152  <- TARGET

package engine

import "unsafe"

// goidOffset for Go 1.24/1.25 is 152 bytes.
const goidOffset = 152

// getg returns the current goroutine's g struct pointer.
// Implemented in assembly (goid_amd64.s or goid_arm64.s).
//
//go:noescape
func getg() uintptr

// getGoroutineIDFast extracts the goroutine ID via the g pointer.
//
//go:nosplit
//go:nocheckptr
func getGoroutineIDFast() int64 {
	gptr := getg()
	if gptr == 0 {
		return getGoroutineIDSlow()
	}

	//nolint:gosec // G103: intentional unsafe pointer arithmetic into the g struct.
	goid := *(*uint64)(unsafe.Pointer(gptr + goidOffset))

	//nolint:gosec // G115: goid values never exceed int64 max.
	return int64(goid)
}
