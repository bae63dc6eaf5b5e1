package identity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"

	"github.com/samber/oops"
)

// The RSA signer and verifier below use the fixed-width wire encodings the
// teacher's lib/crypto/rsa package defines: a 4096-bit RSA
// modulus, public exponent 65537, signed with SHA-512 (RSA_SHA512_4096).
// The 512-byte signature length is what forces Phase 3's continuation read
// when the identity carries this signature type.

type rsaSigner struct {
	priv *rsa.PrivateKey
}

type rsaVerifier struct {
	pub *rsa.PublicKey
}

// NewRSASigner builds a Signer from a 512-byte big-endian modulus and the
// private exponent d, also 512 bytes big-endian.
func NewRSASigner(nBytes, dBytes []byte) (Signer, error) {
	if len(nBytes) != 512 {
		return nil, oops.Errorf("rsa: modulus must be 512 bytes, got %d", len(nBytes))
	}
	n := newBigInt(nBytes)
	d := newBigInt(dBytes)
	// The wire identity carries only the modulus and private exponent, not
	// the prime factors: rsa.PrivateKey.Validate and Precompute both
	// require Primes to be populated (Precompute indexes Primes[0]
	// unconditionally), so neither can be called here. Signing still
	// works: crypto/rsa's decrypt path falls back to plain m = c^d mod n
	// whenever Precomputed.Dp is nil, which it is since we never set it.
	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: 65537},
		D:         d,
	}
	return &rsaSigner{priv: priv}, nil
}

// NewRSAVerifier builds a Verifier from a 512-byte big-endian modulus.
func NewRSAVerifier(nBytes []byte) (Verifier, error) {
	if len(nBytes) != 512 {
		return nil, oops.Errorf("rsa: modulus must be 512 bytes, got %d", len(nBytes))
	}
	pub := &rsa.PublicKey{N: newBigInt(nBytes), E: 65537}
	return &rsaVerifier{pub: pub}, nil
}

func (s *rsaSigner) Sign(data []byte) ([]byte, error) {
	h := sha512.Sum512(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.priv, crypto.SHA512, h[:])
	if err != nil {
		return nil, oops.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

func (v *rsaVerifier) Verify(data, sig []byte) error {
	if len(sig) != 512 {
		return oops.Errorf("rsa: signature must be 512 bytes, got %d", len(sig))
	}
	h := sha512.Sum512(data)
	if err := rsa.VerifyPKCS1v15(v.pub, crypto.SHA512, h[:], sig); err != nil {
		return oops.Errorf("rsa: signature verification failed: %w", err)
	}
	return nil
}
