// Copyright 2025 The epochgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Common goroutine ID extraction utilities.
//
// The engine keys every registration by goroutine ID. The actual
// getGoroutineIDFast() implementation is provided by:
//   - goid_fast.go: g-register fast path (Go 1.24-1.25, amd64/arm64)
//   - goid_fallback.go: runtime.Stack parsing (all other configurations)
//
// API:
//   - getGoroutineID(): main entry point, uses fast path
//   - getGoroutineIDSlow(): always available, parses runtime.Stack output
//   - parseGID(): parses a goroutine ID from stack trace bytes

package engine

import "runtime"

// getGoroutineID returns the current goroutine ID.
//
// Delegates to getGoroutineIDFast(), which is the g-pointer read on
// supported platforms (~1-2ns) and the stack parse elsewhere (~1500ns).
func getGoroutineID() int64 {
	return getGoroutineIDFast()
}

// getGoroutineIDSlow extracts the goroutine ID by parsing runtime.Stack
// output. Universal fallback; also used to validate the fast path in tests.
//
// Stack trace format: "goroutine 123 [running]:\n..."
func getGoroutineIDSlow() int64 {
	// Only the first line is needed.
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

// parseGID extracts a goroutine ID from bytes beginning at a stack-dump
// header line.
//
// Expected format: "goroutine 123 [running]:...". Returns 0 if the prefix
// does not match. Direct byte parsing, no allocations.
func parseGID(buf []byte) int64 {
	const prefix = "goroutine "
	const prefixLen = 10 // len("goroutine ")

	if len(buf) < prefixLen {
		return 0
	}
	if string(buf[:prefixLen]) != prefix {
		return 0
	}

	var gid int64
	for i := prefixLen; i < len(buf); i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break // non-digit terminates the ID
		}
		gid = gid*10 + int64(c-'0')
	}
	return gid
}
