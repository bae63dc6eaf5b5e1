package ntcp

import (
	"encoding/binary"
	"hash/adler32"
	"io"

	"github.com/go-i2p/logger"
)

// readBufSize is the size of the staging buffer the read loop pulls
// ciphertext into on each socket read.
const readBufSize = 4096

// readLoop owns all decode-path mutation of the session's reassembly
// state; it runs on its own goroutine for the life of the session and
// requires no locking against itself.
func (s *Session) readLoop() {
	buf := make([]byte, readBufSize)
	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Debug("ntcp read loop ending")
			}
			s.Terminate(err)
			return
		}
		s.addBytesRecv(n)
		s.staging = append(s.staging, buf[:n]...)

		if err := s.processStaging(); err != nil {
			log.WithFields(logger.Fields{
				"at":     "(Session) readLoop",
				"reason": err,
			}).Warn("frame processing failed, terminating session")
			s.Terminate(err)
			return
		}
		s.armTerminationTimer()
		s.armKeepaliveTimer()
	}
}

// processStaging consumes whole 16-byte blocks from s.staging, advancing
// or completing the in-progress message as each block decrypts.
func (s *Session) processStaging() error {
	for len(s.staging) >= aesBlockSize {
		block := s.staging[:aesBlockSize]
		s.staging = s.staging[aesBlockSize:]

		plain, err := s.dec.DecryptBlock(block)
		if err != nil {
			return err
		}

		if s.inflight == nil {
			l := int(binary.BigEndian.Uint16(plain[:2]))
			if l > s.cfg.MaxFramePayload {
				return ErrFrameTooLarge
			}
			if l == 0 {
				// keepalive: nothing to reassemble.
				continue
			}
			total := align16(l + 2 + 4)
			msg := &inProgressMessage{
				buf:   make([]byte, total),
				total: total,
			}
			copy(msg.buf, plain)
			msg.offset = aesBlockSize
			s.inflight = msg
		} else {
			copy(s.inflight.buf[s.inflight.offset:], plain)
			s.inflight.offset += aesBlockSize
		}

		if s.inflight != nil && s.inflight.offset >= s.inflight.total {
			if err := s.completeMessage(s.inflight); err != nil {
				return err
			}
			s.inflight = nil
		}
	}
	return nil
}

// completeMessage verifies the frame's Adler-32 checksum and, on success,
// hands the payload to the I2NP dispatch collaborator.
func (s *Session) completeMessage(msg *inProgressMessage) error {
	l := int(binary.BigEndian.Uint16(msg.buf[:2]))
	checksumOffset := msg.total - 4
	want := binary.BigEndian.Uint32(msg.buf[checksumOffset:msg.total])
	got := adler32.Checksum(msg.buf[:checksumOffset])
	if got != want {
		return ErrChecksumMismatch
	}
	s.sink.HandleMessage(msg.buf[2 : 2+l])
	return nil
}
