package ntcp

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/go-i2p/ntcp1/lib/config"
	"github.com/go-i2p/ntcp1/lib/crypto/dh"
	"github.com/go-i2p/ntcp1/lib/identity"
)

// mockTransport is the minimal Transport a handshake test needs: it hands
// out freshly generated keypairs and otherwise just records calls.
type mockTransport struct {
	added   []*Session
	removed []*Session
}

func (m *mockTransport) NextDHKeyPair() (*dh.KeyPair, error)    { return dh.GenerateKeyPair() }
func (m *mockTransport) ReuseDHKeyPair(kp *dh.KeyPair)          {}
func (m *mockTransport) SendMessage(hash data.Hash, msg []byte) {}
func (m *mockTransport) AddSession(s *Session)                  { m.added = append(m.added, s) }
func (m *mockTransport) RemoveSession(s *Session)                { m.removed = append(m.removed, s) }

// mockRouterContext presents one router identity and its signer as
// "ourselves".
type mockRouterContext struct {
	identity identity.RouterIdentity
	signer   identity.Signer
}

func (m *mockRouterContext) RouterInfo() []byte                { return nil }
func (m *mockRouterContext) PrivateKeys() identity.Signer       { return m.signer }
func (m *mockRouterContext) Identity() identity.RouterIdentity { return m.identity }

type mockNetDB struct {
	unreachable []data.Hash
}

func (n *mockNetDB) SetUnreachable(hash data.Hash, unreachable bool) {
	if unreachable {
		n.unreachable = append(n.unreachable, hash)
	}
}
func (n *mockNetDB) AddRouterInfo(raw []byte) error { return nil }

type mockSink struct {
	messages [][]byte
}

func (s *mockSink) HandleMessage(msg []byte) {
	s.messages = append(s.messages, append([]byte(nil), msg...))
}
func (s *mockSink) CreateDatabaseStoreMessage() []byte { return nil }

// newMockRouter builds a fresh ed25519 router identity, wired so its Raw
// blob ends with the 2-byte signature-type tag parsePhase3 expects.
func newMockRouter(t *testing.T, seedByte byte) *mockRouterContext {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte + byte(i)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	signer, err := identity.NewEd25519Signer(seed)
	if err != nil {
		t.Fatalf("NewEd25519Signer failed: %v", err)
	}

	raw := make([]byte, len(pub)+2)
	copy(raw, pub)
	binary.BigEndian.PutUint16(raw[len(pub):], uint16(identity.SigTypeEd25519))

	ident := identity.RouterIdentity{
		SigningPublicKey: append([]byte(nil), pub...),
		SigType:          identity.SigTypeEd25519,
		Raw:              raw,
	}
	return &mockRouterContext{identity: ident, signer: signer}
}

// newMockRSARouter builds a router identity signed with RSA-4096/SHA-512,
// whose 512-byte signature (plus its correspondingly large identity blob)
// does not fit cfg.Phase3InitialRead and so forces the continuation read path.
func newMockRSARouter(t *testing.T) *mockRouterContext {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	nBytes := make([]byte, 512)
	priv.N.FillBytes(nBytes)
	dBytes := make([]byte, 512)
	priv.D.FillBytes(dBytes)

	signer, err := identity.NewRSASigner(nBytes, dBytes)
	if err != nil {
		t.Fatalf("NewRSASigner failed: %v", err)
	}

	raw := make([]byte, len(nBytes)+2)
	copy(raw, nBytes)
	binary.BigEndian.PutUint16(raw[len(nBytes):], uint16(identity.SigTypeRSASHA512_4096))

	ident := identity.RouterIdentity{
		SigningPublicKey: append([]byte(nil), nBytes...),
		SigType:          identity.SigTypeRSASHA512_4096,
		Raw:              raw,
	}
	return &mockRouterContext{identity: ident, signer: signer}
}

// TestHandshakePhase3ContinuationRead exercises the boundary property that
// a phase-3 identity+signature combination too large for the responder's
// fixed initial read must trigger a second read before verification.
func TestHandshakePhase3ContinuationRead(t *testing.T) {
	aliceConn, bobConn := net.Pipe()

	aliceRouter := newMockRSARouter(t) // initiator: large RSA identity
	bobRouter := newMockRouter(t, 50)  // responder: small ed25519 identity
	clock := fixedClock{time.Unix(1700000000, 0)}

	// 2 (id length) + 514 (RSA identity blob) + 4 (tsA) + 512 (signature)
	// = 1032 bytes before 16-byte alignment, comfortably past the fixed
	// 448-byte initial read, so this case cannot skip the continuation path.
	cfg := config.DefaultSessionConfig()
	idBlobLen := len(aliceRouter.identity.Raw)
	sigLen, err := aliceRouter.identity.SigType.SignatureLen()
	if err != nil {
		t.Fatalf("SignatureLen failed: %v", err)
	}
	if total := 2 + idBlobLen + 4 + sigLen; total <= cfg.Phase3InitialRead {
		t.Fatalf("fixture does not exceed cfg.Phase3InitialRead: %d <= %d", total, cfg.Phase3InitialRead)
	}

	alice := NewSession(aliceConn, RoleInitiator, &mockTransport{}, aliceRouter, &mockNetDB{}, &mockSink{}, clock, cfg)
	bob := NewSession(bobConn, RoleResponder, &mockTransport{}, bobRouter, &mockNetDB{}, &mockSink{}, clock, cfg)

	aliceErrCh := make(chan error, 1)
	bobErrCh := make(chan error, 1)
	go func() { aliceErrCh <- alice.ClientLogin(bobRouter.identity) }()
	go func() { bobErrCh <- bob.ServerLogin() }()

	var aliceErr, bobErr error
	for i := 0; i < 2; i++ {
		select {
		case aliceErr = <-aliceErrCh:
		case bobErr = <-bobErrCh:
		case <-time.After(10 * time.Second):
			t.Fatalf("handshake timed out")
		}
	}

	if aliceErr != nil {
		t.Fatalf("ClientLogin failed: %v", aliceErr)
	}
	if bobErr != nil {
		t.Fatalf("ServerLogin failed: %v", bobErr)
	}
	if !bob.remoteHash.Equal(aliceRouter.identity.Hash()) {
		t.Fatalf("bob recorded wrong remote hash after continuation read")
	}

	alice.Terminate(nil)
	bob.Terminate(nil)
}

func TestHandshakeEndToEnd(t *testing.T) {
	aliceConn, bobConn := net.Pipe()

	aliceTransport := &mockTransport{}
	bobTransport := &mockTransport{}
	aliceRouter := newMockRouter(t, 1)
	bobRouter := newMockRouter(t, 100)
	aliceNetDB := &mockNetDB{}
	bobNetDB := &mockNetDB{}
	aliceSink := &mockSink{}
	bobSink := &mockSink{}
	clock := fixedClock{time.Unix(1700000000, 0)}

	cfg := config.DefaultSessionConfig()
	alice := NewSession(aliceConn, RoleInitiator, aliceTransport, aliceRouter, aliceNetDB, aliceSink, clock, cfg)
	bob := NewSession(bobConn, RoleResponder, bobTransport, bobRouter, bobNetDB, bobSink, clock, cfg)

	aliceErrCh := make(chan error, 1)
	bobErrCh := make(chan error, 1)

	go func() { aliceErrCh <- alice.ClientLogin(bobRouter.identity) }()
	go func() { bobErrCh <- bob.ServerLogin() }()

	var aliceErr, bobErr error
	for i := 0; i < 2; i++ {
		select {
		case aliceErr = <-aliceErrCh:
		case bobErr = <-bobErrCh:
		case <-time.After(5 * time.Second):
			t.Fatalf("handshake timed out")
		}
	}

	if aliceErr != nil {
		t.Fatalf("ClientLogin failed: %v", aliceErr)
	}
	if bobErr != nil {
		t.Fatalf("ServerLogin failed: %v", bobErr)
	}

	if !alice.Established() {
		t.Fatalf("alice session not established")
	}
	if !bob.Established() {
		t.Fatalf("bob session not established")
	}
	if !alice.remoteHash.Equal(bobRouter.identity.Hash()) {
		t.Fatalf("alice recorded wrong remote hash")
	}
	if !bob.remoteHash.Equal(aliceRouter.identity.Hash()) {
		t.Fatalf("bob recorded wrong remote hash")
	}
	if len(aliceTransport.added) != 1 || len(bobTransport.added) != 1 {
		t.Fatalf("expected both sessions to register themselves with their transport")
	}

	alice.Terminate(nil)
	bob.Terminate(nil)
}

func TestHandshakeRejectsWrongRemoteHash(t *testing.T) {
	aliceConn, bobConn := net.Pipe()

	aliceRouter := newMockRouter(t, 1)
	bobRouter := newMockRouter(t, 100)
	wrongRouter := newMockRouter(t, 200)

	cfg := config.DefaultSessionConfig()
	alice := NewSession(aliceConn, RoleInitiator, &mockTransport{}, aliceRouter, &mockNetDB{}, &mockSink{}, fixedClock{time.Unix(1700000000, 0)}, cfg)
	bob := NewSession(bobConn, RoleResponder, &mockTransport{}, bobRouter, &mockNetDB{}, &mockSink{}, fixedClock{time.Unix(1700000000, 0)}, cfg)

	aliceErrCh := make(chan error, 1)
	bobErrCh := make(chan error, 1)

	go func() { aliceErrCh <- alice.ClientLogin(wrongRouter.identity) }()
	go func() { bobErrCh <- bob.ServerLogin() }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-aliceErrCh:
			if err == nil {
				t.Fatalf("expected ClientLogin to fail when the real peer's identity differs from the claimed one")
			}
		case <-bobErrCh:
		case <-time.After(5 * time.Second):
			t.Fatalf("handshake timed out")
		}
	}
}
