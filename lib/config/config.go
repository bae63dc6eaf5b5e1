// Package config holds the tunables the embedding program assembles and
// passes to the session core and reseed loader. There is no file-loading
// layer here; callers build SessionConfig and ReseedLoaderConfig values
// directly, following the
// teacher's plain-struct, defaulted-constructor style.
package config

import "time"

// SessionConfig tunes the handshake and frame engine.
type SessionConfig struct {
	// MaxFramePayload bounds the L field of an inbound frame; frames
	// claiming a larger payload abort the session.
	MaxFramePayload int

	// Phase3InitialRead is the number of bytes the responder reads before
	// it has decoded the initiator's identity and signature length.
	Phase3InitialRead int

	// IdleTimeout closes a session that exchanges no frames for this long.
	IdleTimeout time.Duration

	// KeepaliveInterval is how often an otherwise-idle session emits a
	// zero-length keepalive frame.
	KeepaliveInterval time.Duration

	// DHPoolSize is how many DH keypairs the transport keeps pre-generated.
	DHPoolSize int
}

// DefaultSessionConfig returns the tunables this repository itself uses.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxFramePayload:   16 * 1024,
		Phase3InitialRead: 448,
		IdleTimeout:       10 * time.Minute,
		KeepaliveInterval: 90 * time.Second,
		DHPoolSize:        5,
	}
}

// ReseedConfig is one reseed server: its base URL and the file name of the
// signer certificate expected for its SU3 archives.
type ReseedConfig struct {
	URL            string
	SU3Fingerprint string
}

// KnownReseedServers lists the reseed hosts the loader picks from at
// random when no explicit host list is supplied.
var KnownReseedServers = []*ReseedConfig{
	{URL: "https://reseed.i2pgit.org/", SU3Fingerprint: "hankhill19580_at_gmail.com.crt"},
	{URL: "https://reseed.sahil.world/", SU3Fingerprint: "sahil_at_mail.i2p.crt"},
	{URL: "https://i2p.diyarciftci.xyz/", SU3Fingerprint: "diyarciftci_at_protonmail.com.crt"},
	{URL: "https://coconut.incognet.io/", SU3Fingerprint: "rambler_at_mail.i2p.crt"},
	{URL: "https://reseed.stormycloud.org/", SU3Fingerprint: "admin_at_stormycloud.org.crt"},
	{URL: "https://reseed-pl.i2pd.xyz/", SU3Fingerprint: "r4sas-reseed_at_mail.i2p.crt"},
	{URL: "https://reseed-fr.i2pd.xyz/", SU3Fingerprint: "r4sas-reseed_at_mail.i2p.crt"},
	{URL: "https://www2.mk16.de/", SU3Fingerprint: "i2p-reseed_at_mk16.de.crt"},
	{URL: "https://reseed2.i2p.net/", SU3Fingerprint: "echelon3_at_mail.i2p.crt"},
	{URL: "https://i2p.novg.net/", SU3Fingerprint: "igor_at_novg.net.crt"},
}

// ReseedLoaderConfig tunes the loader's behavior independent of the host list.
type ReseedLoaderConfig struct {
	// RequestsPerSecond rate-limits fetches against the reseed host list.
	RequestsPerSecond float64
	// Timeout bounds a single fetch attempt.
	Timeout time.Duration
}

// DefaultReseedLoaderConfig returns the loader tunables this repository
// itself uses.
func DefaultReseedLoaderConfig() ReseedLoaderConfig {
	return ReseedLoaderConfig{
		RequestsPerSecond: 1,
		Timeout:           30 * time.Second,
	}
}
