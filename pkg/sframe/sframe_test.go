package sframe

import (
	"bytes"
	"testing"
	"time"

	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/receiver"
	"github.com/goto-opensource/secure-frame-ts/pkg/sframe/sframeerr"
)

func kindOf(t *testing.T, err error) sframeerr.Kind {
	t.Helper()
	se, ok := err.(*sframeerr.Error)
	if !ok {
		t.Fatalf("error %v is not *sframeerr.Error", err)
	}
	return se.Kind
}

func TestContextRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 32)
	sndCtx := NewContext(Options{})
	rcvCtx := NewContext(Options{})

	if err := sndCtx.SetSenderEncryptionKey(11, key); err != nil {
		t.Fatalf("SetSenderEncryptionKey() error = %v", err)
	}
	if err := rcvCtx.SetReceiverEncryptionKey(11, key); err != nil {
		t.Fatalf("SetReceiverEncryptionKey() error = %v", err)
	}
	if !sndCtx.CanEncrypt() {
		t.Fatal("CanEncrypt() = false, want true")
	}
	if !rcvCtx.CanDecrypt(11) {
		t.Fatal("CanDecrypt(11) = false, want true")
	}

	plaintext := []byte("XXXmedia-frame-bytes")
	skip := 3
	out, err := sndCtx.Encrypt(plaintext, skip)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if !bytes.Equal(out[:skip], plaintext[:skip]) {
		t.Errorf("skip prefix = %q, want %q", out[:skip], plaintext[:skip])
	}

	got, err := rcvCtx.Decrypt(out, skip)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt() = %q, want %q", got, plaintext)
	}

	keyID, err := rcvCtx.ReadKeyID(out, skip)
	if err != nil {
		t.Fatalf("ReadKeyID() error = %v", err)
	}
	if keyID != 11 {
		t.Errorf("ReadKeyID() = %d, want 11", keyID)
	}
}

func TestContextEncryptWithoutSenderFails(t *testing.T) {
	c := NewContext(Options{})
	if _, err := c.Encrypt([]byte("x"), 0); err == nil {
		t.Error("expected error encrypting with no sender installed")
	}
}

func TestContextDecryptWithoutReceiverFails(t *testing.T) {
	sndCtx := NewContext(Options{})
	key := bytes.Repeat([]byte{0x02}, 32)
	if err := sndCtx.SetSenderEncryptionKey(3, key); err != nil {
		t.Fatalf("SetSenderEncryptionKey() error = %v", err)
	}
	out, err := sndCtx.Encrypt([]byte("hi"), 0)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	rcvCtx := NewContext(Options{})
	if _, err := rcvCtx.Decrypt(out, 0); err == nil {
		t.Error("expected error decrypting with no receiver registered")
	} else if kindOf(t, err) != KindInvalidKey {
		t.Errorf("Kind = %v, want InvalidKey", kindOf(t, err))
	}
}

func TestContextDeleteReceiver(t *testing.T) {
	c := NewContext(Options{})
	key := bytes.Repeat([]byte{0x03}, 32)
	if err := c.SetReceiverEncryptionKey(7, key); err != nil {
		t.Fatalf("SetReceiverEncryptionKey() error = %v", err)
	}
	if !c.DeleteReceiver(7) {
		t.Error("DeleteReceiver(7) = false, want true (was registered)")
	}
	if c.DeleteReceiver(7) {
		t.Error("DeleteReceiver(7) = true on second call, want false")
	}
	if c.CanDecrypt(7) {
		t.Error("CanDecrypt(7) = true after deletion, want false")
	}
}

func TestReplayWindowTwoHundredFrames(t *testing.T) {
	key := bytes.Repeat([]byte{0x04}, 32)
	sndCtx := NewContext(Options{})
	rcvCtx := NewContext(Options{})
	if err := sndCtx.SetSenderEncryptionKey(21, key); err != nil {
		t.Fatalf("SetSenderEncryptionKey() error = %v", err)
	}
	if err := rcvCtx.SetReceiverEncryptionKey(21, key); err != nil {
		t.Fatalf("SetReceiverEncryptionKey() error = %v", err)
	}

	frames := make([][]byte, 200)
	for i := 0; i < 200; i++ {
		out, err := sndCtx.Encrypt([]byte("frame"), 0)
		if err != nil {
			t.Fatalf("Encrypt() at %d error = %v", i, err)
		}
		frames[i] = out
	}

	for i := 199; i >= 0; i-- {
		_, err := rcvCtx.Decrypt(frames[i], 0)
		wantSuccess := i >= 72
		if wantSuccess && err != nil {
			t.Errorf("counter %d: expected success, got error = %v", i, err)
		}
		if !wantSuccess && err == nil {
			t.Errorf("counter %d: expected ReplayAttackError, got success", i)
		}
		if !wantSuccess && err != nil && kindOf(t, err) != KindReplayAttack {
			t.Errorf("counter %d: Kind = %v, want ReplayAttack", i, kindOf(t, err))
		}
	}
}

func TestDuplicateFrameAcceptedTwice(t *testing.T) {
	key := bytes.Repeat([]byte{0x05}, 32)
	sndCtx := NewContext(Options{})
	rcvCtx := NewContext(Options{})
	if err := sndCtx.SetSenderEncryptionKey(22, key); err != nil {
		t.Fatalf("SetSenderEncryptionKey() error = %v", err)
	}
	if err := rcvCtx.SetReceiverEncryptionKey(22, key); err != nil {
		t.Fatalf("SetReceiverEncryptionKey() error = %v", err)
	}

	out, err := sndCtx.Encrypt([]byte("dup"), 0)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	first, err := rcvCtx.Decrypt(out, 0)
	if err != nil {
		t.Fatalf("first Decrypt() error = %v", err)
	}
	second, err := rcvCtx.Decrypt(out, 0)
	if err != nil {
		t.Fatalf("second Decrypt() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("first = %q, second = %q, want equal", first, second)
	}
}

func TestKeyRotationScenario(t *testing.T) {
	keyA := bytes.Repeat([]byte{0x06}, 32)
	keyB := bytes.Repeat([]byte{0x07}, 32)

	sndA := NewContext(Options{})
	sndB := NewContext(Options{})
	rcv := NewContext(Options{})

	if err := sndA.SetSenderEncryptionKey(23, keyA); err != nil {
		t.Fatalf("SetSenderEncryptionKey(A) error = %v", err)
	}
	if err := rcv.SetReceiverEncryptionKey(23, keyA); err != nil {
		t.Fatalf("SetReceiverEncryptionKey(A) error = %v", err)
	}
	frameA, err := sndA.Encrypt([]byte("frame-a"), 0)
	if err != nil {
		t.Fatalf("Encrypt(A) error = %v", err)
	}

	if err := sndB.SetSenderEncryptionKey(23, keyB); err != nil {
		t.Fatalf("SetSenderEncryptionKey(B) error = %v", err)
	}
	if err := rcv.SetReceiverEncryptionKey(23, keyB); err != nil {
		t.Fatalf("SetReceiverEncryptionKey(B) error = %v", err)
	}
	frameB, err := sndB.Encrypt([]byte("frame-b"), 0)
	if err != nil {
		t.Fatalf("Encrypt(B) error = %v", err)
	}

	if _, err := rcv.Decrypt(frameA, 0); err != nil {
		t.Fatalf("Decrypt(frameA) before retirement error = %v", err)
	}
	if _, err := rcv.Decrypt(frameB, 0); err != nil {
		t.Fatalf("Decrypt(frameB) error = %v", err)
	}

	time.Sleep(receiver.KeyTimeout + 200*time.Millisecond)

	frameA2, err := sndA.Encrypt([]byte("frame-a-2"), 0)
	if err != nil {
		t.Fatalf("Encrypt(A) second error = %v", err)
	}
	if _, err := rcv.Decrypt(frameA2, 0); err == nil {
		t.Error("expected key A to be retired after KeyTimeout")
	}

	frameB2, err := sndB.Encrypt([]byte("frame-b-2"), 0)
	if err != nil {
		t.Fatalf("Encrypt(B) second error = %v", err)
	}
	if _, err := rcv.Decrypt(frameB2, 0); err != nil {
		t.Errorf("key B should still decrypt after A's retirement, error = %v", err)
	}
}

func TestCrossKeyIsolation(t *testing.T) {
	keyA := bytes.Repeat([]byte{0x08}, 32)
	keyB := bytes.Repeat([]byte{0x09}, 32)

	sndA := NewContext(Options{})
	sndB := NewContext(Options{})
	rcv := NewContext(Options{})

	if err := sndA.SetSenderEncryptionKey(3, keyA); err != nil {
		t.Fatalf("SetSenderEncryptionKey(3) error = %v", err)
	}
	if err := sndB.SetSenderEncryptionKey(4, keyB); err != nil {
		t.Fatalf("SetSenderEncryptionKey(4) error = %v", err)
	}
	if err := rcv.SetReceiverEncryptionKey(3, keyA); err != nil {
		t.Fatalf("SetReceiverEncryptionKey(3) error = %v", err)
	}
	if err := rcv.SetReceiverEncryptionKey(4, keyB); err != nil {
		t.Fatalf("SetReceiverEncryptionKey(4) error = %v", err)
	}

	frameA, err := sndA.Encrypt([]byte("a-payload"), 0)
	if err != nil {
		t.Fatalf("Encrypt(A) error = %v", err)
	}
	frameB, err := sndB.Encrypt([]byte("b-payload"), 0)
	if err != nil {
		t.Fatalf("Encrypt(B) error = %v", err)
	}

	if _, err := rcv.Decrypt(frameA, 0); err != nil {
		t.Errorf("Decrypt(frameA) under its own key error = %v", err)
	}
	if _, err := rcv.Decrypt(frameB, 0); err != nil {
		t.Errorf("Decrypt(frameB) under its own key error = %v", err)
	}

	// Swap the keyId encoded in each frame's header so frameA routes to
	// receiver 4 (key B) and frameB routes to receiver 3 (key A); both
	// must fail since the ciphertext core was sealed under the other key.
	swappedA := append([]byte(nil), frameA...)
	swappedA[0] = (swappedA[0] &^ 0x07) | 0x04
	swappedB := append([]byte(nil), frameB...)
	swappedB[0] = (swappedB[0] &^ 0x07) | 0x03

	if _, err := rcv.Decrypt(swappedA, 0); err == nil {
		t.Error("expected failure decrypting frameA under a swapped keyId")
	}
	if _, err := rcv.Decrypt(swappedB, 0); err == nil {
		t.Error("expected failure decrypting frameB under a swapped keyId")
	}
}
