package ntcp

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/go-i2p/ntcp1/lib/common/data"
	"github.com/samber/oops"
)

// phase1Message is the initiator's first cleartext message: X || (H(X) XOR
// HI_r).
type phase1Message struct {
	X         []byte // 256 bytes
	HXxorHIr  data.Hash
}

func buildPhase1(x []byte, responderHash data.Hash) *phase1Message {
	hx := sha256.Sum256(x)
	return &phase1Message{X: x, HXxorHIr: data.Hash(hx).Xor(responderHash)}
}

func (m *phase1Message) marshal() []byte {
	out := make([]byte, phase1Size)
	copy(out[:dhPublicValueSize], m.X)
	copy(out[dhPublicValueSize:], m.HXxorHIr[:])
	return out
}

func unmarshalPhase1(raw []byte) (*phase1Message, error) {
	if len(raw) != phase1Size {
		return nil, oops.Errorf("ntcp: phase 1 message must be %d bytes, got %d", phase1Size, len(raw))
	}
	m := &phase1Message{X: append([]byte(nil), raw[:dhPublicValueSize]...)}
	copy(m.HXxorHIr[:], raw[dhPublicValueSize:])
	return m, nil
}

// verify recomputes H(X) XOR our own identity hash and compares against
// what the initiator sent.
func (m *phase1Message) verify(ourHash data.Hash) error {
	hx := sha256.Sum256(m.X)
	expect := data.Hash(hx).Xor(ourHash)
	if !expect.Equal(m.HXxorHIr) {
		return ErrIdentityMismatch
	}
	return nil
}

// phase2Plaintext is the 48-byte block the responder encrypts and places
// after Y in Phase 2.
type phase2Plaintext struct {
	HXY       data.Hash // H(X || Y)
	Timestamp uint32    // tsB
	Padding   [12]byte
}

func (p *phase2Plaintext) marshal() []byte {
	out := make([]byte, phase2EncBlockSize)
	copy(out[:32], p.HXY[:])
	binary.BigEndian.PutUint32(out[32:36], p.Timestamp)
	copy(out[36:], p.Padding[:])
	return out
}

func unmarshalPhase2Plaintext(raw []byte) (*phase2Plaintext, error) {
	if len(raw) != phase2EncBlockSize {
		return nil, oops.Errorf("ntcp: phase 2 plaintext must be %d bytes, got %d", phase2EncBlockSize, len(raw))
	}
	p := &phase2Plaintext{}
	copy(p.HXY[:], raw[:32])
	p.Timestamp = binary.BigEndian.Uint32(raw[32:36])
	copy(p.Padding[:], raw[36:])
	return p, nil
}

// hashXY computes H(X || Y), used both to build and to verify Phase 2.
func hashXY(x, y []byte) data.Hash {
	h := sha256.New()
	h.Write(x)
	h.Write(y)
	var out data.Hash
	copy(out[:], h.Sum(nil))
	return out
}
