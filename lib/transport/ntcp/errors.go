package ntcp

import "github.com/samber/oops"

var (
	ErrIdentityMismatch  = oops.Errorf("ntcp: phase 1 identity hash mismatch")
	ErrHashMismatch      = oops.Errorf("ntcp: phase 2 hash verification failed")
	ErrSignatureInvalid  = oops.Errorf("ntcp: signature verification failed")
	ErrFrameTooLarge     = oops.Errorf("ntcp: frame payload exceeds maximum size")
	ErrChecksumMismatch  = oops.Errorf("ntcp: adler-32 checksum mismatch")
	ErrSessionTerminated = oops.Errorf("ntcp: session terminated")
	ErrTooManyLeadingZeros = oops.Errorf("ntcp: shared secret has too many leading zero bytes")
)
