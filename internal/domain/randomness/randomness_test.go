package randomness

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/questx-lab/raffle/pkg/crypto"
	"github.com/questx-lab/raffle/pkg/pubsub"
	"github.com/questx-lab/raffle/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_RequestRandom(t *testing.T) {
	p := NewLocalProvider(4, 10*time.Millisecond)
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.RequestRandom(ctx, "r1", []byte("seed")))
	cancel()

	select {
	case d := <-p.Deliveries():
		require.Equal(t, "r1", d.RequestID)
		require.True(t, d.Value.Sign() >= 0)
		require.True(t, d.Value.Cmp(crypto.MaxUint256()) <= 0)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestLocalProvider_Stop(t *testing.T) {
	p := NewLocalProvider(1, time.Hour)
	require.NoError(t, p.RequestRandom(context.Background(), "r1", nil))
	p.Stop()
	p.Stop()

	select {
	case <-p.Deliveries():
		t.Fatal("unexpected delivery")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestKafkaProvider_RequestRandom(t *testing.T) {
	var (
		gotTopic string
		gotPack  *pubsub.Pack
	)
	publisher := &testutil.MockPublisher{
		PublishFunc: func(_ context.Context, topic string, pack *pubsub.Pack) error {
			gotTopic, gotPack = topic, pack
			return nil
		},
	}

	p := NewKafkaProvider(publisher, "raffle.randomness.request")
	require.NoError(t, p.RequestRandom(context.Background(), "r1", []byte{1, 2, 3}))
	require.Equal(t, "raffle.randomness.request", gotTopic)
	require.Equal(t, "r1", string(gotPack.Key))

	var msg RequestMessage
	require.NoError(t, json.Unmarshal(gotPack.Msg, &msg))
	require.Equal(t, "r1", msg.RequestID)
	require.Equal(t, []byte{1, 2, 3}, msg.Seed)

	publisher.PublishFunc = func(context.Context, string, *pubsub.Pack) error { return errors.New("down") }
	require.Error(t, p.RequestRandom(context.Background(), "r2", nil))
}

func TestDecodeDelivery(t *testing.T) {
	testCases := []struct {
		name    string
		msg     string
		wantErr bool
		want    Delivery
	}{
		{
			name: "valid",
			msg:  `{"request_id":"r1","value":"115792089237316195423570985008687907853269984665640564039457584007913129639935"}`,
			want: Delivery{RequestID: "r1", Value: crypto.MaxUint256()},
		},
		{name: "missing id", msg: `{"value":"1"}`, wantErr: true},
		{name: "negative", msg: `{"request_id":"r1","value":"-1"}`, wantErr: true},
		{name: "not a number", msg: `{"request_id":"r1","value":"abc"}`, wantErr: true},
		{name: "not json", msg: `abc`, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeDelivery([]byte(tc.msg))
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want.RequestID, got.RequestID)
			require.Zero(t, tc.want.Value.Cmp(got.Value))
		})
	}
}

func TestDeliveryHandler(t *testing.T) {
	out := make(chan Delivery, 1)
	handler := DeliveryHandler(out)

	handler(context.Background(), &pubsub.Pack{Msg: []byte(`garbage`)}, time.Now())
	require.Len(t, out, 0)

	handler(context.Background(), &pubsub.Pack{Msg: []byte(`{"request_id":"r1","value":"7"}`)}, time.Now())
	d := <-out
	require.Equal(t, "r1", d.RequestID)
	require.Equal(t, int64(7), d.Value.Int64())
}

func TestRecordingProvider(t *testing.T) {
	p := NewRecordingProvider()
	_, ok := p.Last()
	require.False(t, ok)

	var seen []string
	p.OnRequest(func(r RecordedRequest) { seen = append(seen, r.RequestID) })
	require.NoError(t, p.RequestRandom(context.Background(), "r1", []byte("a")))

	last, ok := p.Last()
	require.True(t, ok)
	require.Equal(t, "r1", last.RequestID)
	require.Equal(t, []byte("a"), last.Seed)

	p.Fail(errors.New("offline"))
	require.Error(t, p.RequestRandom(context.Background(), "r2", nil))
	require.Len(t, p.Requests(), 1)
	require.Equal(t, []string{"r1"}, seen)
}
