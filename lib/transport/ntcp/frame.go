package ntcp

import (
	"encoding/binary"
	"hash/adler32"

	"github.com/samber/oops"
)

// Send frames payload and writes it to the connection under the session's
// chained AES-CBC encryption context. Before the session is established,
// messages are queued instead of sent; a terminated session rejects them
// with ErrSessionTerminated.
func (s *Session) Send(payload []byte) error {
	if s.State() == StateTerminated {
		return ErrSessionTerminated
	}
	if !s.Established() {
		s.enqueueDelayed(payload)
		return nil
	}
	return s.sendFrame(payload, 0)
}

// Keepalive emits a zero-length frame carrying the current wall-clock time,
// used to hold NATted connections open during idle periods.
func (s *Session) Keepalive() error {
	ts := uint32(s.clock.Now().Unix())
	return s.sendFrame(nil, ts)
}

// sendFrame builds one frame, encrypts it, and writes it to the wire.
// When payload is nil the frame is a keepalive: L encodes as 0 and
// keepaliveTimestamp occupies the bytes that would otherwise hold payload.
func (s *Session) sendFrame(payload []byte, keepaliveTimestamp uint32) error {
	var l int
	if payload != nil {
		l = len(payload)
		if l > s.cfg.MaxFramePayload {
			return ErrFrameTooLarge
		}
	}

	frameLen := l + 2
	padding := (16 - ((frameLen + 4) % 16)) % 16
	total := frameLen + padding + 4

	frame := make([]byte, total)
	binary.BigEndian.PutUint16(frame[:2], uint16(l))
	if payload != nil {
		copy(frame[2:2+l], payload)
	} else {
		binary.BigEndian.PutUint32(frame[2:6], keepaliveTimestamp)
	}
	// padding bytes are left zero; the original stream does not randomize
	// them, since they carry no information once checksummed.

	checksum := adler32.Checksum(frame[:frameLen+padding])
	binary.BigEndian.PutUint32(frame[frameLen+padding:], checksum)

	ciphertext, err := s.enc.Encrypt(frame)
	if err != nil {
		return oops.Errorf("ntcp: failed to encrypt frame: %w", err)
	}
	n, err := s.conn.Write(ciphertext)
	if err != nil {
		return oops.Errorf("ntcp: failed to write frame: %w", err)
	}
	s.addBytesSent(n)
	s.armTerminationTimer()
	s.armKeepaliveTimer()
	return nil
}
