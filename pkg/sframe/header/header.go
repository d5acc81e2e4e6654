// Package header implements the SFrame header codec: the compact,
// self-describing serialization of (keyId, counter) that precedes every
// encrypted frame and doubles as AEAD associated data.
//
// Wire layout of the first (metadata) byte:
//
//	bit  0   1 2 3   4   5 6 7
//	    [R] [LEN  ] [X] [K/KLEN]
//
// R is reserved (emitted 0, ignored on parse). LEN (3 bits) is the
// counter's byte length minus one. X selects whether K carries a 3-bit
// inline key id (X=0) or KLEN-1, with the key id itself following in KLEN
// bytes (X=1). The counter, big-endian and minimally encoded, always comes
// last.
package header

import (
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeio"
)

// MaxKeyID is the largest key id / counter value this implementation will
// encode. Go's uint64 has no 53-bit-safe-integer ceiling, so per the
// REDESIGN FLAG permitting implementations with full 64-bit unsigned
// integers to lift the draft's JS-derived cap, MaxKeyID is the full
// 64-bit range.
const MaxKeyID uint64 = ^uint64(0)

const (
	lenShift = 4
	lenMask  = 0x7
	xBit     = 0x08
	kMask    = 0x07
)

// Header is a parsed or generated SFrame header.
type Header struct {
	// Data is the exact encoded header bytes (1..17 bytes).
	Data []byte
	// KeyID is the decoded key id, interpreted by this library as the
	// frame's sender id.
	KeyID uint64
	// Counter is the decoded per-sender frame counter.
	Counter uint64
	// RawCounter is the big-endian minimal-length encoding of Counter as it
	// appears inside Data; it is the byte slice fed to the IV builder.
	RawCounter []byte
}

// Len returns the number of bytes Data occupies.
func (h *Header) Len() int {
	return len(h.Data)
}

// Generate builds the header bytes for (keyID, counter). It fails if either
// value exceeds MaxKeyID.
func Generate(keyID, counter uint64) (*Header, error) {
	if keyID > MaxKeyID {
		return nil, sframeerr.New(sframeerr.KindInvalidHeaderKey, "header: generate", errKeyIDRange)
	}

	extended := keyID > 7
	ctrBytes := sframeio.MinimalBytes(counter)

	var kidBytes int
	var k byte
	if extended {
		kidBytes = sframeio.MinimalBytes(keyID)
		k = byte(kidBytes-1) & kMask
	} else {
		k = byte(keyID) & kMask
	}

	size := 1 + ctrBytes
	if extended {
		size += kidBytes
	}
	data := make([]byte, size)

	meta := byte((ctrBytes-1)&lenMask)<<lenShift | k
	if extended {
		meta |= xBit
	}
	data[0] = meta

	offset := 1
	if extended {
		sframeio.PutUint64Minimal(data[offset:offset+kidBytes], keyID)
		offset += kidBytes
	}
	sframeio.PutUint64Minimal(data[offset:offset+ctrBytes], counter)

	return &Header{
		Data:       data,
		KeyID:      keyID,
		Counter:    counter,
		RawCounter: data[offset : offset+ctrBytes],
	}, nil
}

// Parse reads a header from the front of buf. buf may contain trailing
// payload bytes after the header; Parse consumes only what the header
// needs and Header.Data reflects exactly the consumed prefix.
func Parse(buf []byte) (*Header, error) {
	if len(buf) < 2 {
		return nil, sframeerr.New(sframeerr.KindUnknown, "header: parse", errTooShort)
	}

	meta := buf[0]
	lenField := int((meta >> lenShift) & lenMask)
	extended := meta&xBit != 0
	k := int(meta & kMask)
	ctrLen := lenField + 1

	var keyID uint64
	offset := 1
	if extended {
		kidLen := k + 1
		if len(buf) < offset+kidLen {
			return nil, sframeerr.New(sframeerr.KindUnknown, "header: parse", errTooShort)
		}
		keyID = sframeio.Uint64FromBytes(buf[offset : offset+kidLen])
		offset += kidLen
	} else {
		keyID = uint64(k)
	}

	if len(buf) < offset+ctrLen {
		return nil, sframeerr.New(sframeerr.KindUnknown, "header: parse", errTooShort)
	}
	rawCounter := buf[offset : offset+ctrLen]
	counter := sframeio.Uint64FromBytes(rawCounter)
	offset += ctrLen

	data := make([]byte, offset)
	copy(data, buf[:offset])

	return &Header{
		Data:       data,
		KeyID:      keyID,
		Counter:    counter,
		RawCounter: data[len(data)-ctrLen:],
	}, nil
}
