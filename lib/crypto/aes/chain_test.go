package aes

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func randomBytes(t *testing.T, n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("failed to generate random bytes: %v", err)
	}
	return b
}

func TestChainedEncryptDecryptRoundTrip(t *testing.T) {
	key := randomBytes(t, 32)
	iv := randomBytes(t, 16)

	enc, err := NewEncryptStream(key, iv)
	if err != nil {
		t.Fatalf("NewEncryptStream failed: %v", err)
	}
	dec, err := NewDecryptStream(key, iv)
	if err != nil {
		t.Fatalf("NewDecryptStream failed: %v", err)
	}

	blocks := [][]byte{
		randomBytes(t, 16),
		randomBytes(t, 32),
		randomBytes(t, 16384),
	}

	for i, plaintext := range blocks {
		ciphertext, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("block %d: encrypt failed: %v", i, err)
		}
		decrypted, err := dec.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("block %d: decrypt failed: %v", i, err)
		}
		if !bytes.Equal(decrypted, plaintext) {
			t.Fatalf("block %d: round trip mismatch", i)
		}
	}
}

func TestEncryptRejectsUnalignedLength(t *testing.T) {
	enc, err := NewEncryptStream(randomBytes(t, 32), randomBytes(t, 16))
	if err != nil {
		t.Fatalf("NewEncryptStream failed: %v", err)
	}
	if _, err := enc.Encrypt(make([]byte, 17)); err == nil {
		t.Fatalf("expected error for unaligned plaintext length")
	}
}

func TestDecryptBlockContinuesChain(t *testing.T) {
	key := randomBytes(t, 32)
	iv := randomBytes(t, 16)

	enc, err := NewEncryptStream(key, iv)
	if err != nil {
		t.Fatalf("NewEncryptStream failed: %v", err)
	}
	dec, err := NewDecryptStream(key, iv)
	if err != nil {
		t.Fatalf("NewDecryptStream failed: %v", err)
	}

	first := randomBytes(t, 16)
	second := randomBytes(t, 16)

	c1, _ := enc.Encrypt(first)
	c2, _ := enc.Encrypt(second)

	p1, err := dec.DecryptBlock(c1)
	if err != nil {
		t.Fatalf("DecryptBlock 1 failed: %v", err)
	}
	p2, err := dec.DecryptBlock(c2)
	if err != nil {
		t.Fatalf("DecryptBlock 2 failed: %v", err)
	}
	if !bytes.Equal(p1, first) || !bytes.Equal(p2, second) {
		t.Fatalf("chained block decryption mismatch")
	}
}
