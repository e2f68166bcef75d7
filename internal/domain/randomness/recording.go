package randomness

import (
	"context"
	"sync"
)

// RecordingProvider records every request and never delivers on its own.
// Callers feed values back explicitly.
type RecordingProvider struct {
	mutex     sync.Mutex
	requests  []RecordedRequest
	err       error
	onRequest func(RecordedRequest)
}

type RecordedRequest struct {
	RequestID string
	Seed      []byte
}

func NewRecordingProvider() *RecordingProvider {
	return &RecordingProvider{}
}

// Fail makes every following request return err, until Fail(nil).
func (p *RecordingProvider) Fail(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.err = err
}

// OnRequest calls f with every accepted request, outside the provider's lock.
func (p *RecordingProvider) OnRequest(f func(RecordedRequest)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.onRequest = f
}

func (p *RecordingProvider) RequestRandom(_ context.Context, requestID string, seed []byte) error {
	p.mutex.Lock()
	if p.err != nil {
		err := p.err
		p.mutex.Unlock()
		return err
	}

	request := RecordedRequest{RequestID: requestID, Seed: seed}
	p.requests = append(p.requests, request)
	onRequest := p.onRequest
	p.mutex.Unlock()

	if onRequest != nil {
		onRequest(request)
	}

	return nil
}

func (p *RecordingProvider) Requests() []RecordedRequest {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]RecordedRequest(nil), p.requests...)
}

func (p *RecordingProvider) Last() (RecordedRequest, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.requests) == 0 {
		return RecordedRequest{}, false
	}

	return p.requests[len(p.requests)-1], true
}
