package ntcp

import (
	"net"

	"github.com/go-i2p/ntcp1/lib/config"
	"github.com/go-i2p/ntcp1/lib/identity"
)

// Dial opens an outbound TCP connection to addr and drives the initiator
// side of the handshake against remoteIdentity. On success the returned
// session is established and running its read loop.
func Dial(addr string, remoteIdentity identity.RouterIdentity, transport Transport, router RouterContext, netdb NetDB, sink I2NPSink, clock Clock, cfg config.SessionConfig) (*Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := NewSession(conn, RoleInitiator, transport, router, netdb, sink, clock, cfg)
	if err := s.ClientLogin(remoteIdentity); err != nil {
		return nil, err
	}
	return s, nil
}

// Accept wraps an already-accepted inbound connection and drives the
// responder side of the handshake.
func Accept(conn net.Conn, transport Transport, router RouterContext, netdb NetDB, sink I2NPSink, clock Clock, cfg config.SessionConfig) (*Session, error) {
	s := NewSession(conn, RoleResponder, transport, router, netdb, sink, clock, cfg)
	if err := s.ServerLogin(); err != nil {
		return nil, err
	}
	return s, nil
}
