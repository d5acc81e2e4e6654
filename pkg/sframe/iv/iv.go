// Package iv builds the 12-byte AEAD nonce for a frame by right-aligning
// the header's raw counter bytes into a zeroed buffer and XORing the
// cipher suite's salt key over it.
package iv

import "github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"

// Size is the AEAD nonce length used by every supported cipher suite.
const Size = 12

// Build constructs the 12-byte IV for rawCounter (1..8 bytes, big-endian,
// as produced by the header codec) and salt (exactly Size bytes).
func Build(rawCounter []byte, salt []byte) ([]byte, error) {
	if len(rawCounter) < 1 || len(rawCounter) > 8 {
		return nil, sframeerr.New(sframeerr.KindInitializationVector, "iv: build", errCounterLen)
	}
	if len(salt) != Size {
		return nil, sframeerr.New(sframeerr.KindInitializationVector, "iv: build", errSaltLen)
	}

	out := make([]byte, Size)
	copy(out[Size-len(rawCounter):], rawCounter)
	for i := range out {
		out[i] ^= salt[i]
	}
	return out, nil
}
