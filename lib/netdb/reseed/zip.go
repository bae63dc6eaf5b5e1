package reseed

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

var (
	localFileHeaderSig = []byte{0x50, 0x4B, 0x03, 0x04}
	dataDescriptorSig  = []byte{0x50, 0x4B, 0x07, 0x08}
	centralDirSig      = []byte{0x50, 0x4B, 0x01, 0x02}
)

const (
	zipMethodStore     = 0
	zipMethodDeflate   = 8
	dataDescriptorFlag = 0x0008
)

// Entry is one decompressed router descriptor pulled out of an SU3
// archive's embedded ZIP content.
type Entry struct {
	Name string
	Data []byte
}

// WalkZIP scans content for local-file-header records in order, recovering
// compressed-size information from the trailing data descriptor when a
// record's general-purpose flag bit 3 is set (meaning the header's own
// size fields are zero because the writer did not know them up front).
// Scanning stops at the first central-directory record or end of content.
//
// On a malformed or truncated record, WalkZIP returns every entry
// successfully parsed before the failure alongside the error, rather than
// discarding that partial progress — mirroring the original reseed
// client's ProcessSU3Stream, which keeps its running file count on the
// bad-record path instead of throwing it away.
func WalkZIP(content []byte) ([]Entry, error) {
	var entries []Entry
	pos := 0
	for pos < len(content) {
		if pos+4 > len(content) {
			break
		}
		if bytes.Equal(content[pos:pos+4], centralDirSig) {
			break
		}
		if !bytes.Equal(content[pos:pos+4], localFileHeaderSig) {
			return entries, oops.Errorf("reseed: expected local file header at offset %d", pos)
		}

		entry, next, err := readLocalFile(content, pos)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
		pos = next
	}
	log.WithField("entry_count", len(entries)).Debug("walked su3 zip content")
	return entries, nil
}

func readLocalFile(content []byte, pos int) (Entry, int, error) {
	const headerLen = 30
	if pos+headerLen > len(content) {
		return Entry{}, 0, oops.Errorf("reseed: truncated local file header at offset %d", pos)
	}
	h := content[pos : pos+headerLen]

	flags := binary.LittleEndian.Uint16(h[6:8])
	method := binary.LittleEndian.Uint16(h[8:10])
	compressedSize := binary.LittleEndian.Uint32(h[18:22])
	uncompressedSize := binary.LittleEndian.Uint32(h[22:26])
	nameLen := binary.LittleEndian.Uint16(h[26:28])
	extraLen := binary.LittleEndian.Uint16(h[28:30])

	cursor := pos + headerLen
	if cursor+int(nameLen)+int(extraLen) > len(content) {
		return Entry{}, 0, oops.Errorf("reseed: truncated local file name/extra at offset %d", pos)
	}
	name := string(content[cursor : cursor+int(nameLen)])
	cursor += int(nameLen) + int(extraLen)

	usesDataDescriptor := flags&dataDescriptorFlag != 0

	var compressedData []byte
	var next int

	if !usesDataDescriptor {
		if cursor+int(compressedSize) > len(content) {
			return Entry{}, 0, oops.Errorf("reseed: truncated file data for %q", name)
		}
		compressedData = content[cursor : cursor+int(compressedSize)]
		next = cursor + int(compressedSize)
	} else {
		descOffset, err := findDataDescriptor(content, cursor)
		if err != nil {
			return Entry{}, 0, err
		}
		// The four signature bytes themselves are part of the compressed
		// span, not a separator before it: the original reseed client's
		// ProcessSU3Stream treats compressedSize as including them.
		if descOffset+16 > len(content) {
			return Entry{}, 0, oops.Errorf("reseed: truncated data descriptor for %q", name)
		}
		compressedData = content[cursor : descOffset+4]
		descStart := descOffset + 4
		uncompressedSize = binary.LittleEndian.Uint32(content[descStart+8 : descStart+12])
		next = descStart + 12
	}

	var data []byte
	switch method {
	case zipMethodStore:
		data = compressedData
	case zipMethodDeflate:
		decompressed, err := inflate(compressedData, int(uncompressedSize))
		if err != nil {
			return Entry{}, 0, oops.Errorf("reseed: failed to inflate %q: %w", name, err)
		}
		data = decompressed
	default:
		return Entry{}, 0, oops.Errorf("reseed: unsupported compression method %d for %q", method, name)
	}

	return Entry{Name: name, Data: data}, next, nil
}

// findDataDescriptor scans forward from start for the data descriptor
// signature. Real-world SU3 archives always include the optional
// signature, but the format permits omitting it; a descriptor written
// without the signature is not found, and the search fails.
func findDataDescriptor(content []byte, start int) (int, error) {
	idx := bytes.Index(content[start:], dataDescriptorSig)
	if idx < 0 {
		return 0, oops.Errorf("reseed: data descriptor not found after offset %d", start)
	}
	return start + idx, nil
}

func inflate(compressed []byte, expectedSize int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	out := make([]byte, 0, expectedSize)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
