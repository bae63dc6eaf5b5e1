package identity

import (
	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/samber/oops"
)

// RouterIdentity is the minimal slice of a full router identity this
// repository needs: enough to compute the identity hash used in the
// handshake's hash-XOR binding step and to verify the Phase 3 signature.
// The complete certificate/padding/extra-key structure lives in the netdb
// collaborator, out of scope here.
type RouterIdentity struct {
	// SigningPublicKey is the raw signing public key bytes, length and
	// encoding depending on SigType.
	SigningPublicKey []byte
	SigType          SigType

	// Raw is the full identity blob as it appears on the wire; its hash
	// feeds directly into the handshake's identity-binding step.
	Raw []byte
}

// Hash returns the SHA-256 digest of the identity's wire encoding.
func (r RouterIdentity) Hash() data.Hash {
	return data.HashData(r.Raw)
}

// Verifier returns a Verifier bound to this identity's signing public key.
func (r RouterIdentity) Verifier() (Verifier, error) {
	switch r.SigType {
	case SigTypeDSASHA1:
		return NewDSAVerifier(r.SigningPublicKey)
	case SigTypeEd25519:
		return NewEd25519Verifier(r.SigningPublicKey)
	case SigTypeRSASHA512_4096:
		return NewRSAVerifier(r.SigningPublicKey)
	default:
		return nil, oops.Errorf("identity: unsupported signature type %d", r.SigType)
	}
}

// SignatureLen reports the wire length of a signature produced by this
// identity, used by the handshake to size its continuation read when the
// identity's signature does not fit the initial fixed-size chunk.
func (r RouterIdentity) SignatureLen() (int, error) {
	return r.SigType.SignatureLen()
}
