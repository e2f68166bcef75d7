// Package randomness requests random values from an external source. The
// caller names each request; the value arrives later as a Delivery carrying
// the same id. Requesting an id again is allowed and may deliver twice.
package randomness

import (
	"context"
	"math/big"
)

type Delivery struct {
	RequestID string
	Value     *big.Int
}

type Provider interface {
	RequestRandom(ctx context.Context, requestID string, seed []byte) error
}
