// Copyright 2025 The epochgc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !go1.24 || go1.26 || !(amd64 || arm64)

// Fallback goroutine ID extraction for unsupported platforms.
//
// Used when the g-register fast path cannot be trusted:
//
//   - Go versions < 1.24 (runtime.g layout not verified)
//   - Go versions >= 1.26 (runtime.g layout may have changed)
//   - Architectures other than amd64/arm64 (no assembly stub)
//
// The fallback parses runtime.Stack output (~1500ns per call). Registration
// caches the result per goroutine, so only the very first pin of each
// goroutine pays this cost.

package engine

// getGoroutineIDFast is the fallback implementation for unsupported
// platforms. The name is kept for API consistency across build
// configurations.
func getGoroutineIDFast() int64 {
	return getGoroutineIDSlow()
}
