package reseed

import (
	"crypto/x509"
	"encoding/pem"

	"github.com/samber/oops"
)

// ParseCertificate decodes a PEM-encoded X.509 certificate, the format the
// signer named in an SU3 header's SignerID is expected to correspond to in
// a local certificate store. Signature validation of the archive itself
// against this certificate's public key is left to the caller.
func ParseCertificate(pemBytes []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, oops.Errorf("reseed: failed to decode PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, oops.Errorf("reseed: failed to parse certificate: %w", err)
	}
	return cert, nil
}
