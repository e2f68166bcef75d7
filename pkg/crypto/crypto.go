package crypto

import (
	"crypto/rand"
	"math/big"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// RandUint256 returns a uniform random value in [0, 2^256-1].
func RandUint256() (*big.Int, error) {
	return rand.Int(rand.Reader, new(big.Int).Add(maxUint256, big.NewInt(1)))
}

func MaxUint256() *big.Int {
	return new(big.Int).Set(maxUint256)
}
