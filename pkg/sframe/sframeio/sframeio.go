// Package sframeio provides the small set of byte-level helpers shared by
// the header codec, IV builder and frame crypto: minimal big-endian
// integer encoding and constant-time comparison.
package sframeio

import "crypto/subtle"

// MinimalBytes returns the number of big-endian bytes needed to represent v
// with no leading zero byte, with a floor of 1 (so v == 0 still takes one
// byte). The result is always in [1, 8] for any uint64 value.
func MinimalBytes(v uint64) int {
	n := 1
	for v >= 1<<8 {
		v >>= 8
		n++
	}
	return n
}

// PutUint64Minimal writes v into dst using exactly n big-endian bytes,
// where n == len(dst). The caller is responsible for sizing dst via
// MinimalBytes (or another length satisfying the invariant
// 1 <= n <= 8 and v < 256^n).
func PutUint64Minimal(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// Uint64FromBytes decodes a big-endian, minimally-encoded unsigned integer
// of 1 to 8 bytes.
func Uint64FromBytes(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = (v << 8) | uint64(c)
	}
	return v
}

// ConstantTimeCompare reports whether a and b are equal, in time
// independent of where they first differ. A length mismatch returns false
// immediately, without comparing contents; only equal-length inputs go
// through subtle.ConstantTimeCompare.
func ConstantTimeCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
