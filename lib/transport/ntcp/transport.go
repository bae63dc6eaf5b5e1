package ntcp

import (
	"sync"
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/go-i2p/ntcp1/lib/config"
	"github.com/go-i2p/ntcp1/lib/crypto/dh"
)

// compile-time check that DefaultTransport satisfies Transport.
var _ Transport = (*DefaultTransport)(nil)

// DefaultTransport is the session registry and DH keypair source this
// repository provides out of the box; an embedding program may supply its
// own Transport instead, e.g. to mux several transport types together the
// way the teacher's TransportMuxer does.
type DefaultTransport struct {
	pool *dh.Pool

	mu       sync.Mutex
	sessions map[data.Hash]*Session

	activeSessionCount int32 // atomic

	undeliverable func(hash data.Hash, msg []byte)
}

// NewDefaultTransport creates a transport with a DH keypair pool sized per
// cfg.DHPoolSize and an undeliverable-message callback invoked when a
// terminated session's delay queue has nowhere else to go.
func NewDefaultTransport(cfg config.SessionConfig, undeliverable func(hash data.Hash, msg []byte)) *DefaultTransport {
	return &DefaultTransport{
		pool:          dh.NewPool(cfg.DHPoolSize),
		sessions:      make(map[data.Hash]*Session),
		undeliverable: undeliverable,
	}
}

func (t *DefaultTransport) NextDHKeyPair() (*dh.KeyPair, error) {
	return t.pool.Next()
}

func (t *DefaultTransport) ReuseDHKeyPair(kp *dh.KeyPair) {
	if kp == nil {
		return
	}
	t.pool.Reuse(kp)
}

func (t *DefaultTransport) SendMessage(hash data.Hash, msg []byte) {
	t.mu.Lock()
	s, ok := t.sessions[hash]
	t.mu.Unlock()
	if ok {
		if err := s.Send(msg); err == nil {
			return
		}
	}
	if t.undeliverable != nil {
		t.undeliverable(hash, msg)
	}
}

func (t *DefaultTransport) AddSession(s *Session) {
	t.mu.Lock()
	t.sessions[s.remoteHash] = s
	t.mu.Unlock()
	atomic.AddInt32(&t.activeSessionCount, 1)
	log.WithFields(logger.Fields{
		"at":              "(DefaultTransport) AddSession",
		"active_sessions": atomic.LoadInt32(&t.activeSessionCount),
	}).Debug("session registered")
}

func (t *DefaultTransport) RemoveSession(s *Session) {
	t.mu.Lock()
	registered := t.sessions[s.remoteHash] == s
	if registered {
		delete(t.sessions, s.remoteHash)
	}
	t.mu.Unlock()
	if !registered {
		return
	}
	newCount := atomic.AddInt32(&t.activeSessionCount, -1)
	if newCount < 0 {
		atomic.StoreInt32(&t.activeSessionCount, 0)
	}
	log.WithFields(logger.Fields{
		"at":              "(DefaultTransport) RemoveSession",
		"active_sessions": atomic.LoadInt32(&t.activeSessionCount),
	}).Debug("session removed")
}

// ActiveSessionCount reports the number of sessions currently registered.
func (t *DefaultTransport) ActiveSessionCount() int32 {
	return atomic.LoadInt32(&t.activeSessionCount)
}

// Session looks up an established session by remote identity hash.
func (t *DefaultTransport) Session(hash data.Hash) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[hash]
	return s, ok
}
