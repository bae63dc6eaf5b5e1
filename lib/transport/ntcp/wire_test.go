package ntcp

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/go-i2p/ntcp1/lib/common/data"
)

func TestPhase1RoundTrip(t *testing.T) {
	x := make([]byte, dhPublicValueSize)
	rand.Read(x)
	var responderHash data.Hash
	rand.Read(responderHash[:])

	m := buildPhase1(x, responderHash)
	raw := m.marshal()
	if len(raw) != phase1Size {
		t.Fatalf("expected marshaled phase 1 to be %d bytes, got %d", phase1Size, len(raw))
	}

	got, err := unmarshalPhase1(raw)
	if err != nil {
		t.Fatalf("unmarshalPhase1 failed: %v", err)
	}
	if !bytes.Equal(got.X, x) {
		t.Fatalf("X mismatch after round trip")
	}
	if got.HXxorHIr != m.HXxorHIr {
		t.Fatalf("HXxorHIr mismatch after round trip")
	}
	if err := got.verify(responderHash); err != nil {
		t.Fatalf("verify failed on well-formed message: %v", err)
	}
}

func TestPhase1VerifyRejectsWrongHash(t *testing.T) {
	x := make([]byte, dhPublicValueSize)
	rand.Read(x)
	var responderHash, otherHash data.Hash
	rand.Read(responderHash[:])
	rand.Read(otherHash[:])

	m := buildPhase1(x, responderHash)
	if err := m.verify(otherHash); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
}

func TestUnmarshalPhase1RejectsWrongLength(t *testing.T) {
	if _, err := unmarshalPhase1(make([]byte, phase1Size-1)); err == nil {
		t.Fatalf("expected error for undersized phase 1 message")
	}
	if _, err := unmarshalPhase1(make([]byte, phase1Size+1)); err == nil {
		t.Fatalf("expected error for oversized phase 1 message")
	}
}

func TestPhase2PlaintextRoundTrip(t *testing.T) {
	var hxy data.Hash
	rand.Read(hxy[:])

	p := &phase2Plaintext{HXY: hxy, Timestamp: 1700000000}
	rand.Read(p.Padding[:])

	raw := p.marshal()
	if len(raw) != phase2EncBlockSize {
		t.Fatalf("expected marshaled phase 2 plaintext to be %d bytes, got %d", phase2EncBlockSize, len(raw))
	}

	got, err := unmarshalPhase2Plaintext(raw)
	if err != nil {
		t.Fatalf("unmarshalPhase2Plaintext failed: %v", err)
	}
	if got.HXY != p.HXY {
		t.Fatalf("HXY mismatch after round trip")
	}
	if got.Timestamp != p.Timestamp {
		t.Fatalf("Timestamp mismatch after round trip")
	}
	if got.Padding != p.Padding {
		t.Fatalf("Padding mismatch after round trip")
	}
}

func TestUnmarshalPhase2PlaintextRejectsWrongLength(t *testing.T) {
	if _, err := unmarshalPhase2Plaintext(make([]byte, phase2EncBlockSize-1)); err == nil {
		t.Fatalf("expected error for undersized phase 2 plaintext")
	}
}

func TestHashXYIsOrderSensitive(t *testing.T) {
	x := bytes.Repeat([]byte{0xAA}, dhPublicValueSize)
	y := bytes.Repeat([]byte{0xBB}, dhPublicValueSize)

	if hashXY(x, y) == hashXY(y, x) {
		t.Fatalf("hashXY should distinguish X||Y from Y||X")
	}
	if hashXY(x, y) != hashXY(x, y) {
		t.Fatalf("hashXY should be deterministic")
	}
}
