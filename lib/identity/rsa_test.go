package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRSASignVerifyRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 4096)
	require.NoError(t, err)

	nBytes := make([]byte, 512)
	priv.N.FillBytes(nBytes)
	dBytes := make([]byte, 512)
	priv.D.FillBytes(dBytes)

	signer, err := NewRSASigner(nBytes, dBytes)
	require.NoError(t, err)
	verifier, err := NewRSAVerifier(nBytes)
	require.NoError(t, err)

	msg := []byte("phase 4 signed data")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)
	require.Len(t, sig, 512)
	require.NoError(t, verifier.Verify(msg, sig))
}

func TestRSAVerifyRejectsWrongSignatureLength(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 4096)
	require.NoError(t, err)
	nBytes := make([]byte, 512)
	priv.N.FillBytes(nBytes)

	verifier, err := NewRSAVerifier(nBytes)
	require.NoError(t, err)
	require.Error(t, verifier.Verify([]byte("x"), make([]byte, 64)))
}
