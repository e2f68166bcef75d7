package randomness

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/questx-lab/raffle/pkg/crypto"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

// localProvider fulfills requests in-process with crypto/rand values, each
// delivered after delay. Deliveries outlive the request context.
type localProvider struct {
	deliveries chan Delivery
	delay      time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

func NewLocalProvider(buffer int, delay time.Duration) *localProvider {
	return &localProvider{
		deliveries: make(chan Delivery, buffer),
		delay:      delay,
		done:       make(chan struct{}),
	}
}

func (p *localProvider) Deliveries() <-chan Delivery {
	return p.deliveries
}

// Stop drops every pending delivery.
func (p *localProvider) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

func (p *localProvider) RequestRandom(ctx context.Context, requestID string, _ []byte) error {
	value, err := crypto.RandUint256()
	if err != nil {
		return err
	}

	logger := xcontext.Logger(ctx)
	go func() {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-p.done:
			logger.Warnf("Randomness request %s dropped", requestID)
			return
		}

		select {
		case p.deliveries <- Delivery{RequestID: requestID, Value: new(big.Int).Set(value)}:
		case <-p.done:
			logger.Warnf("Randomness request %s dropped", requestID)
		}
	}()

	return nil
}
