// Package framecrypto implements the AEAD encrypt/decrypt step bound to the
// SFrame header as associated data, plus the truncated-HMAC tag that wraps
// every frame regardless of whether the underlying AEAD already carries its
// own authentication tag (AES-CTR suites have none; AES-GCM suites do, and
// it is preserved inside the ciphertext core, not replaced).
package framecrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"

	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/header"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/iv"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeio"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/suite"
)

// Encrypt produces the full output frame for hdr/payload under inst: the
// skip-byte prefix of the returned slice is left untouched (zeroed) for the
// caller to fill in with the clear-text skip region, followed by the
// header bytes, the AEAD ciphertext core, and the truncated HMAC tag.
func Encrypt(inst *suite.Instance, hdr *header.Header, payload []byte, skip int) ([]byte, []byte, error) {
	nonce, err := iv.Build(hdr.RawCounter, inst.SaltKey[:])
	if err != nil {
		return nil, nil, err
	}

	core, err := aeadSeal(inst, nonce, payload, hdr.Data)
	if err != nil {
		return nil, nil, sframeerr.New(sframeerr.KindEncryptionFailure, "framecrypto: encrypt", err)
	}

	nT := inst.Config.NT
	out := make([]byte, skip+hdr.Len()+len(core)+nT)
	copy(out[skip:], hdr.Data)
	copy(out[skip+hdr.Len():], core)

	tag, err := authTag(inst, out[skip:skip+hdr.Len()+len(core)], nT)
	if err != nil {
		return nil, nil, sframeerr.New(sframeerr.KindAuthentication, "framecrypto: encrypt", err)
	}
	copy(out[skip+hdr.Len()+len(core):], tag)

	return out, tag, nil
}

// Decrypt verifies and decrypts frame (skip bytes of clear-text prefix,
// then header bytes, ciphertext core, truncated HMAC tag) against inst.
// hdr must already have been parsed from frame[skip:].
func Decrypt(inst *suite.Instance, hdr *header.Header, frame []byte, skip int) ([]byte, []byte, error) {
	nT := inst.Config.NT
	frameLen := len(frame) - skip
	if frameLen < hdr.Len()+nT {
		return nil, nil, sframeerr.New(sframeerr.KindDecryptionFailure, "framecrypto: decrypt", errFrameTooShort)
	}

	authed := frame[skip : skip+frameLen-nT]
	core := frame[skip+hdr.Len() : skip+frameLen-nT]
	gotTag := frame[skip+frameLen-nT : skip+frameLen]

	wantTag, err := authTag(inst, authed, nT)
	if err != nil {
		return nil, nil, sframeerr.New(sframeerr.KindAuthentication, "framecrypto: decrypt", err)
	}
	if !sframeio.ConstantTimeCompare(wantTag, gotTag) {
		return nil, nil, sframeerr.New(sframeerr.KindAuthentication, "framecrypto: decrypt", errTagMismatch)
	}

	nonce, err := iv.Build(hdr.RawCounter, inst.SaltKey[:])
	if err != nil {
		return nil, nil, err
	}

	plaintext, err := aeadOpen(inst, nonce, core, hdr.Data)
	if err != nil {
		return nil, nil, sframeerr.New(sframeerr.KindDecryptionFailure, "framecrypto: decrypt", err)
	}

	return plaintext, gotTag, nil
}

func authTag(inst *suite.Instance, data []byte, nT int) ([]byte, error) {
	mac := hmac.New(sha256.New, inst.AuthKey)
	if _, err := mac.Write(data); err != nil {
		return nil, err
	}
	sum := mac.Sum(nil)
	if nT > len(sum) {
		return nil, errTagTooLong
	}
	return sum[:nT], nil
}

func aeadSeal(inst *suite.Instance, nonce, payload, ad []byte) ([]byte, error) {
	block, err := aes.NewCipher(inst.EncryptionKey)
	if err != nil {
		return nil, err
	}

	switch inst.Config.Algorithm {
	case suite.AEADAESCTR:
		stream := cipher.NewCTR(block, nonce)
		out := make([]byte, len(payload))
		stream.XORKeyStream(out, payload)
		return out, nil
	case suite.AEADAESGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return gcm.Seal(nil, nonce, payload, ad), nil
	default:
		return nil, errUnknownAlgorithm
	}
}

func aeadOpen(inst *suite.Instance, nonce, core, ad []byte) ([]byte, error) {
	block, err := aes.NewCipher(inst.EncryptionKey)
	if err != nil {
		return nil, err
	}

	switch inst.Config.Algorithm {
	case suite.AEADAESCTR:
		stream := cipher.NewCTR(block, nonce)
		out := make([]byte, len(core))
		stream.XORKeyStream(out, core)
		return out, nil
	case suite.AEADAESGCM:
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		return gcm.Open(nil, nonce, core, ad)
	default:
		return nil, errUnknownAlgorithm
	}
}
