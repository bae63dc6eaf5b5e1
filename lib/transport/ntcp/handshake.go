package ntcp

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/go-i2p/ntcp1/lib/crypto/aes"
	"github.com/go-i2p/ntcp1/lib/crypto/dh"
	"github.com/go-i2p/ntcp1/lib/identity"
	"github.com/samber/oops"
)

// ClientLogin drives the initiator side of the four-phase handshake to
// completion. On success the session is established and its read loop has
// been started; on failure the session is terminated and the error
// returned describes why.
func (s *Session) ClientLogin(remoteIdentity identity.RouterIdentity) error {
	s.remoteIdentity = remoteIdentity
	s.remoteHash = remoteIdentity.Hash()

	kp, err := s.transport.NextDHKeyPair()
	if err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to obtain dh keypair: %w", err)
	}
	s.keypair = kp

	x := kp.PublicBytes()
	p1 := buildPhase1(x, s.remoteHash)
	if _, err := s.conn.Write(p1.marshal()); err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to send phase 1: %w", err)
	}
	s.setState(StatePhase1Sent)

	p2raw := make([]byte, phase2Size)
	if _, err := io.ReadFull(s.conn, p2raw); err != nil {
		s.netdb.SetUnreachable(s.remoteHash, true)
		s.transport.ReuseDHKeyPair(s.keypair)
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to read phase 2: %w", err)
	}
	y := p2raw[:dhPublicValueSize]

	secret, err := s.keypair.Agree(y)
	if err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: dh agreement failed: %w", err)
	}
	key, err := dh.SessionKey(secret)
	if err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: session key derivation failed: %w", err)
	}

	phase2IV := y[240:256]
	dec, err := aes.NewDecryptStream(key, phase2IV)
	if err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to start phase 2 decrypt stream: %w", err)
	}
	plain, err := dec.Decrypt(p2raw[dhPublicValueSize:])
	if err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to decrypt phase 2: %w", err)
	}
	p2, err := unmarshalPhase2Plaintext(plain)
	if err != nil {
		s.Terminate(err)
		return err
	}
	if !p2.HXY.Equal(hashXY(x, y)) {
		s.netdb.SetUnreachable(s.remoteHash, true)
		s.transport.ReuseDHKeyPair(s.keypair)
		s.Terminate(ErrHashMismatch)
		return ErrHashMismatch
	}
	tsB := p2.Timestamp

	initialIV := sha256Xor16(x, s.remoteHash)
	encCtx, err := aes.NewEncryptStream(key, initialIV)
	if err != nil {
		s.Terminate(err)
		return err
	}

	tsA := uint32(s.clock.Now().Unix())
	ourIdentity := s.router.Identity()
	sig, err := s.signHandshake(x, y, s.remoteHash, tsA, tsB)
	if err != nil {
		s.Terminate(err)
		return err
	}
	p3 := buildPhase3(ourIdentity, tsA, sig)
	ciphertext, err := encCtx.Encrypt(p3)
	if err != nil {
		s.Terminate(err)
		return err
	}
	if _, err := s.conn.Write(ciphertext); err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to send phase 3: %w", err)
	}
	s.setState(StatePhase3Sent)

	// Phase 4: decrypt continuing the same stream, verify responder's
	// signature over X || Y || HI_i || tsA || tsB.
	sigLen, err := remoteIdentity.SignatureLen()
	if err != nil {
		s.Terminate(err)
		return err
	}
	p4raw := make([]byte, align16(sigLen))
	if _, err := io.ReadFull(s.conn, p4raw); err != nil {
		s.netdb.SetUnreachable(s.remoteHash, true)
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to read phase 4: %w", err)
	}
	p4plain, err := dec.Decrypt(p4raw)
	if err != nil {
		s.Terminate(err)
		return err
	}
	verifier, err := remoteIdentity.Verifier()
	if err != nil {
		s.Terminate(err)
		return err
	}
	myHash := ourIdentity.Hash()
	signed := concat(x, y, myHash[:], be32(tsA), be32(tsB))
	if err := verifier.Verify(signed, p4plain[:sigLen]); err != nil {
		s.Terminate(ErrSignatureInvalid)
		return ErrSignatureInvalid
	}

	s.enc = encCtx
	s.dec = dec
	return s.finishHandshake()
}

// ServerLogin drives the responder side of the handshake.
func (s *Session) ServerLogin() error {
	p1raw := make([]byte, phase1Size)
	if _, err := io.ReadFull(s.conn, p1raw); err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to read phase 1: %w", err)
	}
	p1, err := unmarshalPhase1(p1raw)
	if err != nil {
		s.Terminate(err)
		return err
	}
	ourHash := s.router.Identity().Hash()
	if err := p1.verify(ourHash); err != nil {
		s.Terminate(err)
		return err
	}
	x := p1.X

	kp, err := s.transport.NextDHKeyPair()
	if err != nil {
		s.Terminate(err)
		return err
	}
	s.keypair = kp
	y := kp.PublicBytes()

	secret, err := kp.Agree(x)
	if err != nil {
		s.Terminate(err)
		return err
	}
	key, err := dh.SessionKey(secret)
	if err != nil {
		s.Terminate(err)
		return err
	}

	tsB := uint32(s.clock.Now().Unix())
	p2 := &phase2Plaintext{HXY: hashXY(x, y), Timestamp: tsB}
	if _, err := rand.Read(p2.Padding[:]); err != nil {
		s.Terminate(err)
		return err
	}

	// The responder's outbound direction is a single chained stream: it
	// starts here, seeded with Y's own tail bytes, and carries straight
	// through into Phase 4 with no reinitialization.
	phase2IV := y[240:256]
	encCtx, err := aes.NewEncryptStream(key, phase2IV)
	if err != nil {
		s.Terminate(err)
		return err
	}
	encBlock, err := encCtx.Encrypt(p2.marshal())
	if err != nil {
		s.Terminate(err)
		return err
	}
	out := make([]byte, 0, phase2Size)
	out = append(out, y...)
	out = append(out, encBlock...)
	if _, err := s.conn.Write(out); err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to send phase 2: %w", err)
	}
	s.setState(StatePhase2Sent)

	initialIV := sha256Xor16(x, ourHash)
	decCtx, err := aes.NewDecryptStream(key, initialIV)
	if err != nil {
		s.Terminate(err)
		return err
	}

	first := make([]byte, s.cfg.Phase3InitialRead)
	if _, err := io.ReadFull(s.conn, first); err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to read phase 3: %w", err)
	}
	plain, err := decCtx.Decrypt(first)
	if err != nil {
		s.Terminate(err)
		return err
	}

	remoteIdentity, tsA, sig, err := s.parsePhase3(plain, decCtx)
	if err != nil {
		s.Terminate(err)
		return err
	}
	s.remoteIdentity = remoteIdentity
	s.remoteHash = remoteIdentity.Hash()

	verifier, err := remoteIdentity.Verifier()
	if err != nil {
		s.Terminate(err)
		return err
	}
	signed := concat(x, y, ourHash[:], be32(tsA), be32(tsB))
	if err := verifier.Verify(signed, sig); err != nil {
		s.Terminate(ErrSignatureInvalid)
		return ErrSignatureInvalid
	}

	ourSig, err := s.signHandshake(x, y, s.remoteHash, tsA, tsB)
	if err != nil {
		s.Terminate(err)
		return err
	}
	p4 := pad16(ourSig)
	ciphertext, err := encCtx.Encrypt(p4)
	if err != nil {
		s.Terminate(err)
		return err
	}
	if _, err := s.conn.Write(ciphertext); err != nil {
		s.Terminate(err)
		return oops.Errorf("ntcp: failed to send phase 4: %w", err)
	}
	s.setState(StatePhase3Sent)

	s.enc = encCtx
	s.dec = decCtx
	return s.finishHandshake()
}

// parsePhase3 decodes the identity-length-prefixed cleartext Bob reads from
// Alice, performing the continuation read if the signature does not fit
// within the initial fixed-size chunk.
func (s *Session) parsePhase3(first []byte, decCtx *aes.DecryptStream) (identity.RouterIdentity, uint32, []byte, error) {
	if len(first) < 2 {
		return identity.RouterIdentity{}, 0, nil, oops.Errorf("ntcp: phase 3 chunk too short")
	}
	idLen := int(binary.BigEndian.Uint16(first[:2]))
	if 2+idLen > len(first) {
		return identity.RouterIdentity{}, 0, nil, oops.Errorf("ntcp: phase 3 identity length exceeds initial read")
	}
	idBlob := first[2 : 2+idLen]
	ident := identity.RouterIdentity{Raw: idBlob}
	// The identity blob is read as the signing public key followed by a
	// 2-byte big-endian signature-type tag, and both fields are filled in
	// here. The full certificate/padding layout of a wire router identity
	// is a netdb concern and is not modeled.
	if len(idBlob) < 2 {
		return identity.RouterIdentity{}, 0, nil, oops.Errorf("ntcp: identity blob too short")
	}
	sigType := identity.SigType(binary.BigEndian.Uint16(idBlob[len(idBlob)-2:]))
	ident.SigType = sigType
	ident.SigningPublicKey = idBlob[:len(idBlob)-2]

	rest := first[2+idLen:]
	if len(rest) < 4 {
		return identity.RouterIdentity{}, 0, nil, oops.Errorf("ntcp: phase 3 chunk missing timestamp")
	}
	tsA := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]

	sigLen, err := sigType.SignatureLen()
	if err != nil {
		return identity.RouterIdentity{}, 0, nil, err
	}

	total := 2 + idLen + 4 + sigLen
	needed := align16(total)
	if needed <= len(first) {
		sig := rest[len(rest)-sigLen:]
		return ident, tsA, append([]byte(nil), sig...), nil
	}

	remaining := needed - len(first)
	extra := make([]byte, remaining)
	if _, err := io.ReadFull(s.conn, extra); err != nil {
		return identity.RouterIdentity{}, 0, nil, oops.Errorf("ntcp: failed to read phase 3 continuation: %w", err)
	}
	extraPlain, err := decCtx.Decrypt(extra)
	if err != nil {
		return identity.RouterIdentity{}, 0, nil, err
	}
	full := append(append([]byte(nil), rest...), extraPlain...)
	sig := full[len(full)-sigLen:]
	return ident, tsA, append([]byte(nil), sig...), nil
}

// signHandshake signs X || Y || peerHash || tsA || tsB with our own
// router-identity private key.
func (s *Session) signHandshake(x, y []byte, peerHash data.Hash, tsA, tsB uint32) ([]byte, error) {
	signed := concat(x, y, peerHash[:], be32(tsA), be32(tsB))
	return s.router.PrivateKeys().Sign(signed)
}

// finishHandshake transitions to established, releases handshake scratch
// state, announces our identity, drains queued messages, and starts the
// read loop.
func (s *Session) finishHandshake() error {
	s.keypair = nil
	s.setState(StateEstablished)
	s.armTerminationTimer()
	s.armKeepaliveTimer()
	s.transport.AddSession(s)

	// Start reading before writing anything further: on an unbuffered
	// connection (e.g. net.Pipe in tests) a write blocks until the peer
	// reads, and the peer is doing the exact same sequence concurrently.
	go s.readLoop()

	if err := s.Keepalive(); err != nil {
		log.WithError(err).Warn("failed to send establishment time-sync keepalive")
	}

	if announce := s.sink.CreateDatabaseStoreMessage(); announce != nil {
		if err := s.Send(announce); err != nil {
			log.WithError(err).Warn("failed to send post-handshake announcement")
		}
	}
	s.drainDelayed()

	return nil
}

func buildPhase3(ident identity.RouterIdentity, tsA uint32, sig []byte) []byte {
	idBlob := ident.Raw
	header := make([]byte, 2+len(idBlob)+4)
	binary.BigEndian.PutUint16(header[:2], uint16(len(idBlob)))
	copy(header[2:2+len(idBlob)], idBlob)
	binary.BigEndian.PutUint32(header[2+len(idBlob):], tsA)

	// Random padding goes between tsA and the signature, so the signature
	// ends on the 16-byte boundary where parsePhase3 reads it from.
	padLen := align16(len(header)+len(sig)) - len(header) - len(sig)
	padding := make([]byte, padLen)
	rand.Read(padding)
	out := append(header, padding...)
	return append(out, sig...)
}

func pad16(b []byte) []byte {
	n := align16(len(b))
	if n == len(b) {
		return b
	}
	out := make([]byte, n)
	copy(out, b)
	rand.Read(out[len(b):])
	return out
}

func align16(n int) int {
	if n%aesBlockSize == 0 {
		return n
	}
	return n + (aesBlockSize - n%aesBlockSize)
}

// sha256Xor16 computes H(x) XOR h and returns its last 16 bytes, used as
// the initial IV of the initiator-to-responder stream that carries Phase 3
// and then the initiator's data frames. Phase 4 travels the other way, on
// the stream seeded with Y's last 16 bytes.
func sha256Xor16(x []byte, h data.Hash) []byte {
	full := data.HashData(x).Xor(h)
	return full[16:]
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func concat(parts ...[]byte) []byte {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
