package dh

import "github.com/samber/oops"

// SessionKey derives the frame engine's 32-byte AES-256 key from a raw
// 256-byte big-endian DH shared secret.
//
// The derivation preserves a quirk of the original implementation, which
// treats the shared secret as a signed big-endian integer when deciding
// where the 32 key bytes start:
//
//   - if the high bit of the first byte is set, the secret would read as
//     negative; a zero byte is prepended and the 32 bytes starting at that
//     prepended zero are used as the key.
//   - else if the first byte is non-zero, the first 32 bytes are the key.
//   - else the leading zero bytes are skipped and the next 32 bytes are
//     the key.
//
// If more than 32 leading zero bytes occur the secret is considered
// degenerate and the session must be aborted.
func SessionKey(secret []byte) ([]byte, error) {
	if len(secret) != 256 {
		return nil, oops.Errorf("dh: shared secret must be 256 bytes, got %d", len(secret))
	}

	if secret[0]&0x80 != 0 {
		padded := make([]byte, 257)
		copy(padded[1:], secret)
		return padded[0:32], nil
	}

	if secret[0] != 0 {
		return secret[0:32], nil
	}

	skip := 0
	for skip < len(secret) && secret[skip] == 0 {
		skip++
	}
	if skip > 32 {
		return nil, oops.Errorf("dh: shared secret has %d leading zero bytes, aborting session", skip)
	}
	if skip+32 > len(secret) {
		return nil, oops.Errorf("dh: shared secret too short after skipping leading zeros")
	}
	return secret[skip : skip+32], nil
}
