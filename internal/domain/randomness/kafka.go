package randomness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/xcontext"
)

type RequestMessage struct {
	RequestID string `json:"request_id"`
	Seed      []byte `json:"seed"`
}

type DeliveryMessage struct {
	RequestID string `json:"request_id"`
	// Value is a decimal string, so that uint256 values survive JSON.
	Value string `json:"value"`
}

// kafkaProvider publishes requests to a topic served by an external oracle.
// The oracle answers on a delivery topic read by DeliveryHandler.
type kafkaProvider struct {
	publisher    pubsub.Publisher
	requestTopic string
}

func NewKafkaProvider(publisher pubsub.Publisher, requestTopic string) *kafkaProvider {
	return &kafkaProvider{publisher: publisher, requestTopic: requestTopic}
}

func (p *kafkaProvider) RequestRandom(ctx context.Context, requestID string, seed []byte) error {
	b, err := json.Marshal(RequestMessage{RequestID: requestID, Seed: seed})
	if err != nil {
		return err
	}

	return p.publisher.Publish(ctx, p.requestTopic, &pubsub.Pack{Key: []byte(requestID), Msg: b})
}

func DecodeDelivery(msg []byte) (Delivery, error) {
	var m DeliveryMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return Delivery{}, err
	}

	if m.RequestID == "" {
		return Delivery{}, errors.New("missing request id")
	}

	value, ok := new(big.Int).SetString(m.Value, 10)
	if !ok || value.Sign() < 0 {
		return Delivery{}, fmt.Errorf("invalid random value %q", m.Value)
	}

	return Delivery{RequestID: m.RequestID, Value: value}, nil
}

// DeliveryHandler forwards every well-formed delivery message to out.
// Malformed messages are logged and dropped.
func DeliveryHandler(out chan<- Delivery) pubsub.SubscribeHandler {
	return func(ctx context.Context, pack *pubsub.Pack, t time.Time) {
		delivery, err := DecodeDelivery(pack.Msg)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Drop invalid randomness delivery: %v", err)
			return
		}

		select {
		case out <- delivery:
		case <-ctx.Done():
		}
	}
}
