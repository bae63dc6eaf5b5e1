package reseed

import (
	"encoding/binary"

	"github.com/samber/oops"
)

const (
	su3Magic        = "I2Psu3"
	su3FileTypeZIP  = 0
	su3ContentReseed = 3

	su3HeaderSize = 39
)

// SU3 is a parsed archive header plus its version string, signer ID,
// content, and signature sections, each a sub-slice of the original byte
// stream rather than a copy.
type SU3 struct {
	Version       byte
	SigType       uint16
	SigLength     uint16
	VersionLength uint8
	SignerIDLen   uint8
	ContentLength uint64
	FileType      uint8
	ContentType   uint8

	VersionString []byte
	SignerID      []byte
	Content       []byte
	Signature     []byte
}

// ParseSU3 parses the fixed 39-byte header and slices out the variable
// sections that follow it, validating magic, file type, and content type.
func ParseSU3(raw []byte) (*SU3, error) {
	if len(raw) < su3HeaderSize {
		return nil, oops.Errorf("reseed: su3 stream shorter than header (%d bytes)", len(raw))
	}
	if string(raw[:6]) != su3Magic {
		return nil, oops.Errorf("reseed: su3 magic mismatch")
	}

	s := &SU3{
		Version:       raw[6],
		SigType:       binary.BigEndian.Uint16(raw[7:9]),
		SigLength:     binary.BigEndian.Uint16(raw[9:11]),
		VersionLength: raw[12],
		SignerIDLen:   raw[14],
		ContentLength: binary.BigEndian.Uint64(raw[15:23]),
		FileType:      raw[24],
		ContentType:   raw[26],
	}

	if s.FileType != su3FileTypeZIP {
		return nil, oops.Errorf("reseed: su3 file type %d is not ZIP", s.FileType)
	}
	if s.ContentType != su3ContentReseed {
		return nil, oops.Errorf("reseed: su3 content type %d is not reseed data", s.ContentType)
	}

	offset := su3HeaderSize
	need := offset + int(s.VersionLength) + int(s.SignerIDLen) + int(s.ContentLength) + int(s.SigLength)
	if len(raw) < need {
		return nil, oops.Errorf("reseed: su3 stream truncated, need %d bytes, have %d", need, len(raw))
	}

	s.VersionString = raw[offset : offset+int(s.VersionLength)]
	offset += int(s.VersionLength)
	s.SignerID = raw[offset : offset+int(s.SignerIDLen)]
	offset += int(s.SignerIDLen)
	s.Content = raw[offset : offset+int(s.ContentLength)]
	offset += int(s.ContentLength)
	s.Signature = raw[offset : offset+int(s.SigLength)]

	return s, nil
}
