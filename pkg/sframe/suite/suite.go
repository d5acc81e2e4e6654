// Package suite implements the SFrame cipher suite key schedule: HKDF-based
// derivation of the encryption, salt and auth keys from raw key material,
// for each of the four variants the draft defines.
package suite

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
)

// AEADAlgorithm identifies the bulk cipher used by a variant.
type AEADAlgorithm int

const (
	AEADAESCTR AEADAlgorithm = iota
	AEADAESGCM
)

// Variant enumerates the four cipher suites the SFrame draft defines. The
// zero value is intentionally not a valid variant, so a caller who leaves a
// Variant field unset gets a clear ConfigFor error instead of silently
// selecting AES_CM_128_HMAC_SHA256_4.
type Variant int

const (
	_ Variant = iota
	AES_CM_128_HMAC_SHA256_4
	AES_CM_128_HMAC_SHA256_8
	AES_GCM_128_SHA256
	AES_GCM_256_SHA512
)

// DefaultVariant is used when the caller does not specify one.
const DefaultVariant = AES_GCM_256_SHA512

// HKDF domain-separation constants. These must not change: they are part of
// the wire-level interop contract with any other SFrame implementation.
var (
	hkdfSalt = []byte("SFrame10")
	infoKey  = []byte("key")
	infoSalt = []byte("salt")
	infoAuth = []byte("auth")
)

// Config is the immutable parameter set for a cipher suite variant.
type Config struct {
	Algorithm AEADAlgorithm
	HKDFHash  func() hash.Hash
	NK        int // encryption key length in bytes
	NN        int // nonce length in bytes (always 12)
	NT        int // authentication tag length in bytes
}

var configs = map[Variant]Config{
	AES_CM_128_HMAC_SHA256_4: {Algorithm: AEADAESCTR, HKDFHash: sha256.New, NK: 16, NN: 12, NT: 4},
	AES_CM_128_HMAC_SHA256_8: {Algorithm: AEADAESCTR, HKDFHash: sha256.New, NK: 16, NN: 12, NT: 8},
	AES_GCM_128_SHA256:       {Algorithm: AEADAESGCM, HKDFHash: sha256.New, NK: 16, NN: 12, NT: 8},
	AES_GCM_256_SHA512:       {Algorithm: AEADAESGCM, HKDFHash: sha512.New, NK: 32, NN: 12, NT: 16},
}

// ConfigFor returns the parameter set for variant.
func ConfigFor(v Variant) (Config, error) {
	cfg, ok := configs[v]
	if !ok {
		return Config{}, sframeerr.New(sframeerr.KindInvalidKey, "suite: config", errUnknownVariant)
	}
	return cfg, nil
}

// Instance is a cipher suite bound to one piece of raw key material. It is
// derived once and is immutable thereafter; it is owned by exactly one
// Sender, or one keyring slot of one Receiver.
type Instance struct {
	Variant       Variant
	Config        Config
	baseKey       []byte
	EncryptionKey []byte
	SaltKey       [12]byte
	AuthKey       []byte
}

// New derives an Instance from rawKey for the given variant.
func New(variant Variant, rawKey []byte) (*Instance, error) {
	cfg, err := ConfigFor(variant)
	if err != nil {
		return nil, err
	}
	if len(rawKey) == 0 {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "suite: new", errEmptyKey)
	}

	encKey, err := expand(cfg.HKDFHash, rawKey, infoKey, cfg.NK)
	if err != nil {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "suite: derive key", err)
	}
	saltBytes, err := expand(cfg.HKDFHash, rawKey, infoSalt, 12)
	if err != nil {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "suite: derive salt", err)
	}
	// The auth key is always HMAC-SHA-256 regardless of the suite's HKDF
	// hash, per the source behavior this library preserves for wire
	// compatibility.
	authKey, err := expand(sha256.New, rawKey, infoAuth, cfg.NK)
	if err != nil {
		return nil, sframeerr.New(sframeerr.KindInvalidKey, "suite: derive auth", err)
	}

	inst := &Instance{
		Variant:       variant,
		Config:        cfg,
		baseKey:       append([]byte(nil), rawKey...),
		EncryptionKey: encKey,
		AuthKey:       authKey,
	}
	copy(inst.SaltKey[:], saltBytes)
	return inst, nil
}

// DeriveEncryptionKeyBits returns n bytes of HKDF(baseKey, info "salt", n)
// directly, independent of the instance's cached key material. It uses the
// "salt" info label, so its first 12 bytes equal SaltKey; this is the
// pairing the interop vectors for this helper fix. It exists for
// interop-vector testing and diagnostics, mirroring the source's
// deriveEncryptionKeyBits helper.
func (in *Instance) DeriveEncryptionKeyBits(n int) ([]byte, error) {
	return expand(in.Config.HKDFHash, in.baseKey, infoSalt, n)
}

// DeriveSaltBits returns n bytes of HKDF(baseKey, info "key", n) directly,
// independent of the instance's cached key material. It uses the "key"
// info label, so its first NK bytes equal EncryptionKey; this is the
// pairing the interop vectors for this helper fix. It exists for
// interop-vector testing and diagnostics, mirroring the source's
// deriveSaltBits helper.
func (in *Instance) DeriveSaltBits(n int) ([]byte, error) {
	return expand(in.Config.HKDFHash, in.baseKey, infoKey, n)
}

func expand(h func() hash.Hash, ikm, info []byte, n int) ([]byte, error) {
	reader := hkdf.New(h, ikm, hkdfSalt, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}
