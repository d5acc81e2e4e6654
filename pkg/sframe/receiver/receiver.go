// Package receiver implements the per-receiver side of the SFrame transform:
// a replay window over incoming counters and a rolling keyring that retires
// superseded keys after a fixed grace period instead of dropping them the
// instant a newer key is installed.
package receiver

import (
	"sync"
	"time"

	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/framecrypto"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/header"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/suite"
)

// ReplayWindow is the number of counter values behind the current maximum
// that are still accepted: a counter exactly ReplayWindow behind the
// maximum is already too old.
const ReplayWindow = 128

// KeyTimeout is the grace period an outgoing key remains usable after a
// newer key has been installed in its place.
const KeyTimeout = 1000 * time.Millisecond

// Receiver decrypts incoming frames from a single keyId, enforcing a
// sliding replay window and holding a small rolling keyring so that frames
// encrypted just before a key rotation can still be decrypted. It is safe
// for concurrent use.
type Receiver struct {
	mu                 sync.Mutex
	id                 uint64
	maxReceivedCounter int64
	keyring            []*suite.Instance
	scheduled          map[*suite.Instance]*time.Timer
}

// New creates a Receiver for keyId with an empty keyring.
func New(id uint64) *Receiver {
	return &Receiver{
		id:                 id,
		maxReceivedCounter: -1,
		scheduled:          make(map[*suite.Instance]*time.Timer),
	}
}

// ReceiverID returns the keyId this receiver decrypts frames for.
func (r *Receiver) ReceiverID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// CanDecrypt reports whether at least one key has been installed.
func (r *Receiver) CanDecrypt() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keyring) > 0
}

// SetEncryptionKey appends inst to the keyring. If the keyring already held
// at least one key, the previously-installed keys are scheduled for
// retirement after KeyTimeout: at that point every key strictly older than
// inst is dropped. inst itself is never retired by this rotation.
func (r *Receiver) SetEncryptionKey(inst *suite.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hadKey := len(r.keyring) > 0
	r.keyring = append(r.keyring, inst)

	if !hadKey {
		return
	}
	if _, scheduled := r.scheduled[inst]; scheduled {
		return
	}

	timer := time.AfterFunc(KeyTimeout, func() {
		r.retireBefore(inst)
	})
	r.scheduled[inst] = timer
}

func (r *Receiver) retireBefore(inst *suite.Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.scheduled, inst)

	idx := -1
	for i, k := range r.keyring {
		if k == inst {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return
	}
	r.keyring = r.keyring[idx:]
}

// Decrypt validates the replay window for hdr's counter, then attempts
// decryption against each keyring entry, oldest first, stopping at the
// first success.
func (r *Receiver) Decrypt(hdr *header.Header, frame []byte, skip int) ([]byte, error) {
	r.mu.Lock()
	c := int64(hdr.Counter)
	max := r.maxReceivedCounter
	if c < max && max-c >= ReplayWindow {
		r.mu.Unlock()
		return nil, sframeerr.New(sframeerr.KindReplayAttack, "receiver: decrypt", errReplay)
	}

	var keys []*suite.Instance
	if len(r.keyring) > 1 {
		keys = make([]*suite.Instance, len(r.keyring))
		copy(keys, r.keyring)
	} else {
		keys = r.keyring
	}
	r.mu.Unlock()

	if len(keys) == 0 {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "receiver: decrypt", errNoKey)
	}

	var payload []byte
	var ok bool
	for _, key := range keys {
		out, _, err := framecrypto.Decrypt(key, hdr, frame, skip)
		if err != nil {
			continue
		}
		payload, ok = out, true
		break
	}
	if !ok {
		return nil, sframeerr.New(sframeerr.KindDecryptionFailure, "receiver: decrypt", errAllKeysFailed)
	}

	r.mu.Lock()
	if c > r.maxReceivedCounter {
		r.maxReceivedCounter = c
	}
	r.mu.Unlock()

	if skip == 0 {
		return payload, nil
	}
	plaintext := make([]byte, skip+len(payload))
	copy(plaintext, frame[:skip])
	copy(plaintext[skip:], payload)
	return plaintext, nil
}
