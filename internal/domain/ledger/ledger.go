// Package ledger holds the arithmetic of a raffle: price tier lookup,
// weighted winner selection over cumulative entry counts, random value
// normalization and the platform fee split.
package ledger

import (
	"errors"
	"math/big"
)

const (
	BasisPoints = 10000

	MaxCommissionBps = 5000
	MaxPriceTiers    = 5
)

var ErrEmptyLedger = errors.New("ledger is empty")

type Tier struct {
	ID         uint32
	EntryCount uint64
	Price      *big.Int
}

// FindTier returns the first tier with the given id. It reports false if no
// tier matches.
func FindTier(tiers []Tier, id uint32) (Tier, bool) {
	for _, t := range tiers {
		if t.ID == id {
			return t, true
		}
	}

	return Tier{}, false
}

// LowerBound returns the smallest index i in [0, n) whose cumulative count is
// greater than or equal to drawn. Cumulative counts must be strictly
// increasing and the last one must be at least drawn. cumulativeAt is called
// O(log n) times.
func LowerBound(n uint64, drawn uint64, cumulativeAt func(i uint64) (uint64, error)) (uint64, error) {
	if n == 0 {
		return 0, ErrEmptyLedger
	}

	lo, hi := uint64(0), n-1
	for lo < hi {
		mid := lo + (hi-lo)/2
		c, err := cumulativeAt(mid)
		if err != nil {
			return 0, err
		}

		if c < drawn {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo, nil
}

// NormalizeRandom maps raw into [1, size].
func NormalizeRandom(raw *big.Int, size uint64) (uint64, error) {
	if size == 0 {
		return 0, ErrEmptyLedger
	}

	m := new(big.Int).Mod(raw, new(big.Int).SetUint64(size))
	return m.Uint64() + 1, nil
}

// SplitFee returns the platform fee, rounded down, and the seller amount.
// The two always sum to raised.
func SplitFee(raised *big.Int, bps uint16) (fee *big.Int, seller *big.Int) {
	fee = new(big.Int).Mul(raised, big.NewInt(int64(bps)))
	fee.Quo(fee, big.NewInt(BasisPoints))
	seller = new(big.Int).Sub(raised, fee)
	return fee, seller
}
