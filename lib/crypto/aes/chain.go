// Package aes provides the frame engine's chained AES-256 CBC stream
// cipher: one persistent cipher.BlockMode per direction, whose IV is simply
// whatever ciphertext block it last produced or consumed. Unlike the
// one-shot Encrypt/Decrypt helpers a single block cipher call might use,
// a session's encrypt and decrypt streams are never re-initialized with a
// fresh IV for the life of the connection.
package aes

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// EncryptStream wraps a persistent CBC encrypter. Each call to CryptBlocks
// continues the chain started by the previous call, using the last
// ciphertext block produced as the next call's IV; this is exactly what
// cipher.BlockMode already does internally, so the stream needs no
// explicit IV bookkeeping of its own.
type EncryptStream struct {
	mode cipher.BlockMode
}

// NewEncryptStream creates an encrypt stream seeded with the session key
// and initial IV established during the handshake.
func NewEncryptStream(key, iv []byte) (*EncryptStream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, oops.Errorf("aes: failed to create cipher: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, oops.Errorf("aes: iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &EncryptStream{mode: cipher.NewCBCEncrypter(block, iv)}, nil
}

// Encrypt encrypts plaintext into a freshly allocated buffer,
// continuing the chain from the previous call. len(plaintext) must be a
// multiple of the AES block size; the frame engine pads frames to a block
// boundary before calling this.
func (s *EncryptStream) Encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext)%aes.BlockSize != 0 {
		return nil, oops.Errorf("aes: plaintext length %d is not a multiple of block size", len(plaintext))
	}
	ciphertext := make([]byte, len(plaintext))
	s.mode.CryptBlocks(ciphertext, plaintext)
	return ciphertext, nil
}

// DecryptStream is the receive-side counterpart of EncryptStream.
type DecryptStream struct {
	mode cipher.BlockMode
}

// NewDecryptStream creates a decrypt stream seeded with the session key
// and initial IV established during the handshake.
func NewDecryptStream(key, iv []byte) (*DecryptStream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, oops.Errorf("aes: failed to create cipher: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, oops.Errorf("aes: iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &DecryptStream{mode: cipher.NewCBCDecrypter(block, iv)}, nil
}

// Decrypt decrypts ciphertext, continuing the chain from the previous call.
func (s *DecryptStream) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, oops.Errorf("aes: ciphertext length %d is not a multiple of block size", len(ciphertext))
	}
	plaintext := make([]byte, len(ciphertext))
	s.mode.CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// DecryptBlock decrypts exactly one 16-byte block, used by the reader to
// peel off a frame's length prefix before it knows how many further blocks
// to read.
func (s *DecryptStream) DecryptBlock(block []byte) ([]byte, error) {
	if len(block) != aes.BlockSize {
		return nil, oops.Errorf("aes: block must be %d bytes, got %d", aes.BlockSize, len(block))
	}
	out := make([]byte, aes.BlockSize)
	s.mode.CryptBlocks(out, block)
	return out, nil
}
