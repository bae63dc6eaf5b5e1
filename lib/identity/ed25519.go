package identity

import (
	"crypto/ed25519"

	"github.com/samber/oops"
)

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

type ed25519Verifier struct {
	pub ed25519.PublicKey
}

// NewEd25519Signer builds a Signer from a 32-byte seed.
func NewEd25519Signer(seed []byte) (Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, oops.Errorf("ed25519: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// NewEd25519Verifier builds a Verifier from a 32-byte public key.
func NewEd25519Verifier(pub []byte) (Verifier, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, oops.Errorf("ed25519: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	return &ed25519Verifier{pub: ed25519.PublicKey(pub)}, nil
}

func (s *ed25519Signer) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}

func (v *ed25519Verifier) Verify(data, sig []byte) error {
	if len(sig) != ed25519.SignatureSize {
		return oops.Errorf("ed25519: signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	if !ed25519.Verify(v.pub, data, sig) {
		return oops.Errorf("ed25519: signature verification failed")
	}
	return nil
}
