// Package sender implements the per-sender side of the SFrame transform: a
// monotonic frame counter paired with a single active cipher suite key.
package sender

import (
	"sync"

	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/framecrypto"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/header"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/suite"
)

// Sender encrypts outgoing frames under a single active key, stamping each
// one with a strictly increasing counter. It is safe for concurrent use.
type Sender struct {
	mu       sync.Mutex
	id       uint64
	key      *suite.Instance
	counter  uint64
	overflow bool
}

// New creates a Sender for id with no key installed yet.
func New(id uint64) *Sender {
	return &Sender{id: id}
}

// SetSenderID replaces the sender's identifier. The counter is not reset.
func (s *Sender) SetSenderID(id uint64) error {
	if id > header.MaxKeyID {
		return sframeerr.New(sframeerr.KindInvalidHeaderKey, "sender: set sender id", errIDRange)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

// SenderID returns the sender's current identifier.
func (s *Sender) SenderID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// SetEncryptionKey replaces the active cipher suite key.
func (s *Sender) SetEncryptionKey(inst *suite.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = inst
}

// CanEncrypt reports whether a key has been installed.
func (s *Sender) CanEncrypt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil
}

// Encrypt seals plaintext under the active key, allocating the next counter
// value, and returns the full wire frame. The first skip bytes of plaintext
// are copied into the clear-text prefix of the returned frame.
func (s *Sender) Encrypt(plaintext []byte, skip int) ([]byte, error) {
	s.mu.Lock()
	if s.key == nil {
		s.mu.Unlock()
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "sender: encrypt", errNoKey)
	}
	if s.overflow {
		s.mu.Unlock()
		return nil, sframeerr.New(sframeerr.KindEncryptionFailure, "sender: encrypt", errCounterOverflow)
	}

	c := s.counter
	if c == ^uint64(0) {
		// This is the last representable counter value: it is still valid
		// to send, but the increment below would silently wrap to 0, so
		// mark the sender exhausted instead.
		s.overflow = true
	} else {
		s.counter = c + 1
	}
	id := s.id
	key := s.key
	s.mu.Unlock()

	hdr, err := header.Generate(id, c)
	if err != nil {
		return nil, err
	}

	out, _, err := framecrypto.Encrypt(key, hdr, plaintext[skip:], skip)
	if err != nil {
		return nil, err
	}
	if skip > 0 {
		copy(out[:skip], plaintext[:skip])
	}
	return out, nil
}
