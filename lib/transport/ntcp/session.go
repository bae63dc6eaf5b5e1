package ntcp

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/go-i2p/ntcp1/lib/config"
	"github.com/go-i2p/ntcp1/lib/crypto/aes"
	"github.com/go-i2p/ntcp1/lib/crypto/dh"
	"github.com/go-i2p/ntcp1/lib/identity"
)

var log = logger.GetGoI2PLogger()

// State is one of a Session's lifecycle states. Transitions are strictly
// forward except for the terminal state, which is reachable from any other.
type State int

const (
	StateConnecting State = iota
	StatePhase1Sent
	StatePhase2Sent
	StatePhase3Sent
	StateEstablished
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StatePhase1Sent:
		return "phase1-sent"
	case StatePhase2Sent:
		return "phase2-sent"
	case StatePhase3Sent:
		return "phase3-sent"
	case StateEstablished:
		return "established"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// inProgressMessage tracks a partially-reassembled inbound frame.
type inProgressMessage struct {
	buf    []byte
	offset int
	total  int // L + 2 + 4, rounded up to a multiple of 16
}

// Session is one TCP connection between this router and a peer, in any
// phase of the handshake or in the established data phase.
type Session struct {
	mu sync.Mutex

	conn net.Conn
	role Role

	transport Transport
	router    RouterContext
	netdb     NetDB
	sink      I2NPSink
	clock     Clock
	cfg       config.SessionConfig

	state State

	remoteIdentity identity.RouterIdentity
	remoteHash     data.Hash

	keypair *dh.KeyPair

	enc *aes.EncryptStream
	dec *aes.DecryptStream

	staging   []byte              // ciphertext not yet consumed by the frame reader
	inflight  *inProgressMessage
	delayed   [][]byte            // messages queued before established

	bytesSent uint64
	bytesRecv uint64

	termTimer      *time.Timer
	keepaliveTimer *time.Timer
	closeOnce      sync.Once
	closed         chan struct{}
}

// Role distinguishes which side of the handshake a Session plays.
type Role int

const (
	RoleInitiator Role = iota
	RoleResponder
)

// NewSession wraps an accepted or dialed connection in a fresh, unestablished
// Session, tuned by cfg.
func NewSession(conn net.Conn, role Role, transport Transport, router RouterContext, netdb NetDB, sink I2NPSink, clock Clock, cfg config.SessionConfig) *Session {
	return &Session{
		conn:      conn,
		role:      role,
		transport: transport,
		router:    router,
		netdb:     netdb,
		sink:      sink,
		clock:     clock,
		cfg:       cfg,
		state:     StateConnecting,
		closed:    make(chan struct{}),
	}
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	log.WithFields(logger.Fields{
		"at":     "(Session) setState",
		"from":   prev.String(),
		"to":     next.String(),
		"remote": s.conn.RemoteAddr().String(),
	}).Debug("session state transition")
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Established reports whether the handshake has completed successfully.
func (s *Session) Established() bool {
	return s.State() == StateEstablished
}

// enqueueDelayed appends a message to the pre-established delay queue.
func (s *Session) enqueueDelayed(msg []byte) {
	s.mu.Lock()
	s.delayed = append(s.delayed, msg)
	s.mu.Unlock()
}

// drainDelayed flushes the delay queue in FIFO order; called exactly once,
// immediately after the session transitions to established.
func (s *Session) drainDelayed() {
	s.mu.Lock()
	queued := s.delayed
	s.delayed = nil
	s.mu.Unlock()
	for _, msg := range queued {
		if err := s.Send(msg); err != nil {
			log.WithError(err).Warn("failed to send delayed message after establishment")
		}
	}
}

// Terminate tears the session down: closes the socket, stops the
// termination timer, resubmits undelivered delayed messages to the
// transport, and removes the session from the transport's registry. Safe
// to call more than once.
func (s *Session) Terminate(reason error) {
	s.closeOnce.Do(func() {
		log.WithFields(logger.Fields{
			"at":     "(Session) Terminate",
			"reason": reason,
		}).Info("terminating session")

		s.setState(StateTerminated)

		if s.termTimer != nil {
			s.termTimer.Stop()
		}
		if s.keepaliveTimer != nil {
			s.keepaliveTimer.Stop()
		}

		s.mu.Lock()
		queued := s.delayed
		s.delayed = nil
		hash := s.remoteHash
		s.mu.Unlock()

		for _, msg := range queued {
			s.transport.SendMessage(hash, msg)
		}

		s.conn.Close()
		s.transport.RemoveSession(s)
		close(s.closed)
	})
}

// armTerminationTimer (re)starts the idle-termination timer. Called at
// establishment and after every inbound/outbound frame.
func (s *Session) armTerminationTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.termTimer == nil {
		s.termTimer = time.AfterFunc(s.cfg.IdleTimeout, func() {
			s.Terminate(ErrSessionTerminated)
		})
		return
	}
	s.termTimer.Reset(s.cfg.IdleTimeout)
}

// armKeepaliveTimer (re)starts the idle-keepalive timer. Called at
// establishment, after every outbound frame and inbound read, and from
// within its own fire handler, so a session that is otherwise idle emits a
// zero-length frame every cfg.KeepaliveInterval; any genuine traffic
// postpones the next one.
func (s *Session) armKeepaliveTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keepaliveTimer == nil {
		s.keepaliveTimer = time.AfterFunc(s.cfg.KeepaliveInterval, s.fireKeepalive)
		return
	}
	s.keepaliveTimer.Reset(s.cfg.KeepaliveInterval)
}

func (s *Session) fireKeepalive() {
	if err := s.Keepalive(); err != nil {
		log.WithError(err).Debug("keepalive send failed")
		return
	}
	s.armKeepaliveTimer()
}

func (s *Session) addBytesSent(n int) {
	atomic.AddUint64(&s.bytesSent, uint64(n))
}

func (s *Session) addBytesRecv(n int) {
	atomic.AddUint64(&s.bytesRecv, uint64(n))
}

// BytesSent returns the number of encrypted frame bytes written so far,
// length prefix, padding and checksum included; handshake messages are not
// counted.
func (s *Session) BytesSent() uint64 { return atomic.LoadUint64(&s.bytesSent) }

// BytesRecv returns the number of ciphertext bytes the read loop has read
// since establishment; handshake messages are not counted.
func (s *Session) BytesRecv() uint64 { return atomic.LoadUint64(&s.bytesRecv) }
