package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEd25519SignVerifyRoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := NewEd25519Signer(priv.Seed())
	require.NoError(t, err)
	verifier, err := NewEd25519Verifier(pub)
	require.NoError(t, err)

	msg := []byte("phase 3 signed data")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)
	require.NoError(t, verifier.Verify(msg, sig))
}

func TestEd25519VerifyRejectsTamperedData(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer, err := NewEd25519Signer(priv.Seed())
	require.NoError(t, err)
	verifier, err := NewEd25519Verifier(pub)
	require.NoError(t, err)

	sig, err := signer.Sign([]byte("original"))
	require.NoError(t, err)
	require.Error(t, verifier.Verify([]byte("tampered"), sig))
}

func TestSigTypeSignatureLen(t *testing.T) {
	cases := []struct {
		t    SigType
		want int
	}{
		{SigTypeDSASHA1, 40},
		{SigTypeEd25519, 64},
		{SigTypeRSASHA512_4096, 512},
	}
	for _, c := range cases {
		got, err := c.t.SignatureLen()
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestSigTypeSignatureLenUnsupported(t *testing.T) {
	_, err := SigTypeECDSASHA256.SignatureLen()
	require.Error(t, err)
}
