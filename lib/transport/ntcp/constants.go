package ntcp

const (
	ProtocolName = "NTCP"

	// dhPublicValueSize is the wire size of a DH public value (2048-bit group).
	dhPublicValueSize = 256

	// phase1Size is the initiator's first message: X || (H(X) XOR HI_r).
	phase1Size = dhPublicValueSize + 32

	// phase2EncBlockSize is the size of Phase 2's encrypted block: a
	// 32-byte hash, a 4-byte timestamp, and 12 bytes of filler.
	phase2EncBlockSize = 48

	// phase2Size is the responder's reply: Y plus the encrypted block.
	phase2Size = dhPublicValueSize + phase2EncBlockSize

	aesBlockSize = 16
)

// MaxFramePayload, Phase3InitialRead, idle-termination, and keepalive
// cadence are all session tunables carried on each Session's
// config.SessionConfig rather than fixed here; see lib/config/config.go
// and config.DefaultSessionConfig for the values this repository itself
// runs with.
