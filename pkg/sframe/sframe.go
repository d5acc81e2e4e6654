// Package sframe implements the SFrame end-to-end media encryption
// transform: per-frame AEAD encryption bound to a compact header, a
// per-sender monotonic counter, and a per-receiver keyring with replay-
// window enforcement and delayed key retirement.
//
// Context is the facade most callers use; the header, iv, suite,
// framecrypto, sender and receiver sub-packages implement the pieces it
// composes and can be used standalone for interop testing.
package sframe

import (
	"sync"

	"github.com/pion/logging"

	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/header"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/receiver"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sender"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/suite"
)

// Kind identifies the category of a *Error. It is re-exported from
// sframeerr so callers never need to import that package directly.
type Kind = sframeerr.Kind

// Error is the single error type every Context operation returns.
type Error = sframeerr.Error

// Re-exported Kind values, see sframeerr for definitions.
const (
	KindUnknown              = sframeerr.KindUnknown
	KindInvalidKey           = sframeerr.KindInvalidKey
	KindInvalidHeaderKey     = sframeerr.KindInvalidHeaderKey
	KindInitializationVector = sframeerr.KindInitializationVector
	KindEncryptionFailure    = sframeerr.KindEncryptionFailure
	KindDecryptionFailure    = sframeerr.KindDecryptionFailure
	KindAuthentication       = sframeerr.KindAuthentication
	KindReplayAttack         = sframeerr.KindReplayAttack
)

// Variant re-exports the cipher suite variant enum.
type Variant = suite.Variant

// Cipher suite variants the draft defines.
const (
	AES_CM_128_HMAC_SHA256_4 = suite.AES_CM_128_HMAC_SHA256_4
	AES_CM_128_HMAC_SHA256_8 = suite.AES_CM_128_HMAC_SHA256_8
	AES_GCM_128_SHA256       = suite.AES_GCM_128_SHA256
	AES_GCM_256_SHA512       = suite.AES_GCM_256_SHA512
)

// DefaultVariant is the cipher suite NewContext selects when
// Options.Variant is unset.
const DefaultVariant = suite.DefaultVariant

// Options configures a Context. The zero value is ready to use: it selects
// DefaultVariant and performs no logging.
type Options struct {
	// Variant selects the cipher suite used to derive keys installed
	// through this Context. It does not vary per sender or receiver.
	Variant Variant

	// LoggerFactory, if set, is used to create a leveled logger for
	// diagnostic output. If nil, Context logs nothing.
	LoggerFactory logging.LoggerFactory
}

// Frame pairs frame bytes with the length of their clear-text skip region,
// mirroring the {data, headerLength} shape callers pass at the edges of
// the public API.
type Frame struct {
	Data         []byte
	HeaderLength int
}

// Context is the facade over one Sender and a set of Receivers keyed by
// keyId. It owns no network or persistence state; callers drive frames in
// and out explicitly. Context is safe for concurrent use.
type Context struct {
	variant Variant
	log     logging.LeveledLogger

	mu        sync.RWMutex
	snd       *sender.Sender
	receivers map[uint64]*receiver.Receiver
}

// NewContext creates a Context with no sender or receivers installed. An
// unset Options.Variant resolves to DefaultVariant.
func NewContext(opts Options) *Context {
	variant := opts.Variant
	if variant == 0 {
		variant = DefaultVariant
	}
	c := &Context{
		variant:   variant,
		receivers: make(map[uint64]*receiver.Receiver),
	}
	if opts.LoggerFactory != nil {
		c.log = opts.LoggerFactory.NewLogger("sframe")
	}
	return c
}

func (c *Context) resolveVariant() Variant {
	return c.variant
}

// SetSenderEncryptionKey creates the Context's Sender on first call and
// installs rawKey as its active cipher suite key, deriving the suite with
// the Context's configured variant.
func (c *Context) SetSenderEncryptionKey(senderID uint64, rawKey []byte) error {
	inst, err := suite.New(c.resolveVariant(), rawKey)
	if err != nil {
		return wrapInvalidHeaderKey(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snd == nil {
		c.snd = sender.New(senderID)
	} else if err := c.snd.SetSenderID(senderID); err != nil {
		return err
	}
	c.snd.SetEncryptionKey(inst)
	if c.log != nil {
		c.log.Debugf("sframe: installed sender key for senderId=%d", senderID)
	}
	return nil
}

// SetReceiverEncryptionKey upserts the Receiver registered at keyID and
// appends rawKey to its keyring, deriving the suite with the Context's
// configured variant.
func (c *Context) SetReceiverEncryptionKey(keyID uint64, rawKey []byte) error {
	inst, err := suite.New(c.resolveVariant(), rawKey)
	if err != nil {
		return wrapInvalidHeaderKey(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receivers[keyID]
	if !ok {
		r = receiver.New(keyID)
		c.receivers[keyID] = r
	}
	r.SetEncryptionKey(inst)
	if c.log != nil {
		c.log.Debugf("sframe: installed receiver key for keyId=%d", keyID)
	}
	return nil
}

// DeleteReceiver removes the Receiver registered at keyID, if any, and
// reports whether it existed.
func (c *Context) DeleteReceiver(keyID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.receivers[keyID]
	delete(c.receivers, keyID)
	return ok
}

// CanEncrypt reports whether a sender key has been installed.
func (c *Context) CanEncrypt() bool {
	c.mu.RLock()
	s := c.snd
	c.mu.RUnlock()
	return s != nil && s.CanEncrypt()
}

// CanDecrypt reports whether a receiver is registered for id and has at
// least one key installed.
func (c *Context) CanDecrypt(id uint64) bool {
	c.mu.RLock()
	r, ok := c.receivers[id]
	c.mu.RUnlock()
	return ok && r.CanDecrypt()
}

// Encrypt seals plaintext under the active sender key and returns the wire
// frame. The first skip bytes of plaintext travel in the clear.
func (c *Context) Encrypt(plaintext []byte, skip int) ([]byte, error) {
	c.mu.RLock()
	s := c.snd
	c.mu.RUnlock()
	if s == nil {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "sframe: encrypt", errNoSender)
	}
	return s.Encrypt(plaintext, skip)
}

// EncryptFrame is the {data, headerLength} convenience form of Encrypt.
func (c *Context) EncryptFrame(f Frame) ([]byte, error) {
	return c.Encrypt(f.Data, f.HeaderLength)
}

// ReadKeyID parses only the header of data[skip:] and returns its keyId,
// without attempting decryption.
func (c *Context) ReadKeyID(data []byte, skip int) (uint64, error) {
	hdr, err := header.Parse(data[skip:])
	if err != nil {
		return 0, err
	}
	return hdr.KeyID, nil
}

// Decrypt parses the header from data[skip:], looks up the Receiver for
// its keyId, and delegates decryption to it.
func (c *Context) Decrypt(data []byte, skip int) ([]byte, error) {
	hdr, err := header.Parse(data[skip:])
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	r, ok := c.receivers[hdr.KeyID]
	c.mu.RUnlock()
	if !ok {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "sframe: decrypt", errNoReceiver)
	}

	plaintext, err := r.Decrypt(hdr, data, skip)
	if err != nil {
		if c.log != nil {
			c.log.Debugf("sframe: decrypt failed for keyId=%d: %v", hdr.KeyID, err)
		}
		return nil, err
	}
	return plaintext, nil
}

// DecryptFrame is the {data, headerLength} convenience form of Decrypt.
func (c *Context) DecryptFrame(f Frame) ([]byte, error) {
	return c.Decrypt(f.Data, f.HeaderLength)
}

// wrapInvalidHeaderKey normalizes any cipher suite derivation failure to
// KindInvalidHeaderKey, per the Context-level error taxonomy: a bad
// senderId/keyId or malformed raw key material is the caller's mistake at
// setup time, distinct from KindInvalidKey (no key installed at encrypt
// time) which suite.New itself uses for its own standalone callers.
func wrapInvalidHeaderKey(err error) error {
	return sframeerr.New(sframeerr.KindInvalidHeaderKey, "sframe: derive key", err)
}
