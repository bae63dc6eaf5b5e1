// Package identity models the router-identity surface the NTCP session core
// needs: enough of a router's identity to bind a handshake to it and verify
// its signatures, without pulling in the full netdb/common-structures stack
// (that lives in the netdb collaborator, out of scope for this repository).
package identity

import "github.com/samber/oops"

// Verifier checks signatures produced by a matching Signer.
type Verifier interface {
	// Verify reports a non-nil error if sig is not a valid signature over data.
	Verify(data, sig []byte) error
}

// Signer produces signatures that a matching Verifier can check.
type Signer interface {
	Sign(data []byte) (sig []byte, err error)
}

// SigType enumerates the router-identity signature types this package can
// sign and verify. Values mirror the SigningKeyType byte used on the wire by
// Phase 3's identity blob.
type SigType uint16

const (
	SigTypeDSASHA1      SigType = 0
	SigTypeECDSASHA256  SigType = 1
	SigTypeEd25519      SigType = 7
	SigTypeRSASHA512_4096 SigType = 4
)

// SignatureLen returns the wire length, in bytes, of a signature of this type.
func (t SigType) SignatureLen() (int, error) {
	switch t {
	case SigTypeDSASHA1:
		return 40, nil
	case SigTypeEd25519:
		return 64, nil
	case SigTypeRSASHA512_4096:
		return 512, nil
	default:
		return 0, oops.Errorf("unsupported signature type %d", t)
	}
}
