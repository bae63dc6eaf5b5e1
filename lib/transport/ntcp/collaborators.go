package ntcp

import (
	"time"

	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/go-i2p/ntcp1/lib/crypto/dh"
	"github.com/go-i2p/ntcp1/lib/identity"
)

// Transport is the surface a Session needs from its owning transport: a
// source of pre-generated DH keypairs, outbound routing for messages that
// could not be delivered, and the session registry.
type Transport interface {
	NextDHKeyPair() (*dh.KeyPair, error)
	ReuseDHKeyPair(kp *dh.KeyPair)
	SendMessage(hash data.Hash, msg []byte)
	AddSession(s *Session)
	RemoveSession(s *Session)
}

// RouterContext exposes the local router's own identity and keys, needed
// to sign Phase 3/4 messages and to announce ourselves once established.
type RouterContext interface {
	RouterInfo() []byte
	PrivateKeys() identity.Signer
	Identity() identity.RouterIdentity
}

// NetDB is the subset of the network database this package touches: marking
// a peer unreachable on handshake failure, and (via the reseed loader,
// elsewhere) adding freshly learned router descriptors.
type NetDB interface {
	SetUnreachable(hash data.Hash, unreachable bool)
	AddRouterInfo(raw []byte) error
}

// I2NPSink is the message-dispatch collaborator: completed inbound frames
// are handed to HandleMessage, and CreateDatabaseStoreMessage produces the
// announcement sent immediately after a session establishes.
type I2NPSink interface {
	HandleMessage(msg []byte)
	CreateDatabaseStoreMessage() []byte
}

// Clock abstracts wall-clock access so handshake and keepalive timestamps
// are testable. The idle-termination and keepalive timers run on real time
// and do not consult it.
type Clock interface {
	Now() time.Time
}
