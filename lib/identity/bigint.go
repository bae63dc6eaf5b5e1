package identity

import "math/big"

func newBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
