package testutil

import (
	"context"
	"sync"

	"github.com/questx-lab/raffle/pkg/errorx"
	"github.com/questx-lab/raffle/pkg/pubsub"
)

type MockPublisher struct {
	PublishFunc func(context.Context, string, *pubsub.Pack) error
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, pack *pubsub.Pack) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, pack)
	}

	return errorx.New(errorx.NotImplemented, "Not implemented")
}

type PublishedMessage struct {
	Topic string
	Pack  *pubsub.Pack
}

// RecordingPublisher keeps every published message in order.
type RecordingPublisher struct {
	mutex    sync.Mutex
	messages []PublishedMessage
}

func (p *RecordingPublisher) Publish(_ context.Context, topic string, pack *pubsub.Pack) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Pack: pack})
	return nil
}

func (p *RecordingPublisher) Messages() []PublishedMessage {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]PublishedMessage(nil), p.messages...)
}
