// Package memzero provides best-effort wiping of sensitive byte slices.
package memzero

import "runtime"

// Wipe zeroes b in place. Best effort: it aims to keep the compiler from
// eliding the writes, but cannot defeat copies the runtime already made.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}
