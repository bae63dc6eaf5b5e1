// Package dh implements the 2048-bit Diffie-Hellman key agreement used by
// the session handshake, and the shared-secret-to-AES-key derivation that
// turns the agreed secret into the frame engine's session key.
package dh

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// p and g are the well-known 2048-bit MODP group parameters (RFC 3526 group
// 14) used for every handshake's DH exchange.
var (
	p = mustHex("" +
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC7" +
		"4020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F14" +
		"374FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B" +
		"7EDEE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163" +
		"BF0598DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208" +
		"552BB9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E" +
		"36CE3BE39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF69" +
		"55817183995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFF" +
		"FFFFFFFF")
	g = big.NewInt(2)
)

func mustHex(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("dh: invalid group constant")
	}
	return n
}

// KeyPair is a single DH keypair: a 2048-bit private exponent and its
// corresponding public value.
type KeyPair struct {
	X *big.Int // private exponent
	Y *big.Int // public value g^X mod p
}

// GenerateKeyPair produces a fresh DH keypair.
func GenerateKeyPair() (*KeyPair, error) {
	xBytes := make([]byte, 256)
	if _, err := io.ReadFull(rand.Reader, xBytes); err != nil {
		log.WithError(err).Error("failed to read randomness for DH keypair")
		return nil, oops.Errorf("dh: failed to generate keypair: %w", err)
	}
	x := new(big.Int).SetBytes(xBytes)
	y := new(big.Int).Exp(g, x, p)
	return &KeyPair{X: x, Y: y}, nil
}

// PublicBytes returns Y as a fixed 256-byte big-endian value, zero-padded
// on the left as needed for the wire.
func (kp *KeyPair) PublicBytes() []byte {
	return fixedBytes(kp.Y, 256)
}

// Agree computes the shared secret g^(xy) mod p given the peer's public
// value, encoded as a 256-byte big-endian integer.
func (kp *KeyPair) Agree(peerPublic []byte) ([]byte, error) {
	if len(peerPublic) != 256 {
		return nil, oops.Errorf("dh: peer public value must be 256 bytes, got %d", len(peerPublic))
	}
	peerY := new(big.Int).SetBytes(peerPublic)
	if peerY.Sign() <= 0 || peerY.Cmp(p) >= 0 {
		return nil, oops.Errorf("dh: peer public value out of range")
	}
	s := new(big.Int).Exp(peerY, kp.X, p)
	return fixedBytes(s, 256), nil
}

func fixedBytes(n *big.Int, size int) []byte {
	b := n.Bytes()
	if len(b) >= size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// Pool hands out pre-generated keypairs so the handshake never blocks on
// DH generation on the hot path; it backs the Transport collaborator's
// NextDHKeyPair/ReuseDHKeyPair pair.
type Pool struct {
	ready chan *KeyPair
}

// NewPool starts a pool that keeps up to size keypairs pre-generated in the
// background.
func NewPool(size int) *Pool {
	pl := &Pool{ready: make(chan *KeyPair, size)}
	for i := 0; i < size; i++ {
		go pl.fill()
	}
	return pl
}

func (pl *Pool) fill() {
	kp, err := GenerateKeyPair()
	if err != nil {
		log.WithError(err).Warn("DH pool failed to generate keypair")
		return
	}
	pl.ready <- kp
}

// Next returns a keypair from the pool, generating one inline if the pool
// is momentarily empty.
func (pl *Pool) Next() (*KeyPair, error) {
	select {
	case kp := <-pl.ready:
		go pl.fill()
		return kp, nil
	default:
		return GenerateKeyPair()
	}
}

// Reuse returns an unused keypair back to the pool instead of discarding it.
func (pl *Pool) Reuse(kp *KeyPair) {
	select {
	case pl.ready <- kp:
	default:
	}
}
