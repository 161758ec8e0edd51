package client

import (
	"context"
	"sync"
)

type stubRemote struct {
	mu         sync.Mutex
	submits    []AdoptionRequest
	fetches    int
	clears     int
	response   SubmitResponse
	submitErr  error
	fetchErr   error
	clearErr   error
	history    []Notification
	block      chan struct{}
	submitting chan struct{}
}

func (r *stubRemote) SubmitAdoption(ctx context.Context, req AdoptionRequest) (SubmitResponse, error) {
	r.mu.Lock()
	r.submits = append(r.submits, req)
	block, submitting := r.block, r.submitting
	r.mu.Unlock()

	if submitting != nil {
		close(submitting)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return SubmitResponse{}, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response, r.submitErr
}

func (r *stubRemote) FetchNotifications(context.Context) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	out := make([]Notification, len(r.history))
	copy(out, r.history)
	return out, nil
}

func (r *stubRemote) ClearNotifications(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	if r.clearErr != nil {
		return r.clearErr
	}
	r.history = nil
	return nil
}

func (r *stubRemote) submitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submits)
}

func (r *stubRemote) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}

// scriptedPrompter answers prompts in order. A nil entry cancels.
type scriptedPrompter struct {
	mu      sync.Mutex
	answers []*string
	asked   []PromptRequest
}

func answers(values ...string) *scriptedPrompter {
	p := &scriptedPrompter{}
	for _, v := range values {
		p.answers = append(p.answers, &v)
	}
	return p
}

func (p *scriptedPrompter) cancelNext() *scriptedPrompter {
	p.answers = append(p.answers, nil)
	return p
}

func (p *scriptedPrompter) Prompt(_ context.Context, req PromptRequest) (PromptResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, req)
	if len(p.answers) == 0 {
		return PromptResponse{Cancelled: true}, nil
	}
	next := p.answers[0]
	p.answers = p.answers[1:]
	if next == nil {
		return PromptResponse{Cancelled: true}, nil
	}
	return PromptResponse{Value: *next}, nil
}

func (p *scriptedPrompter) askedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.asked)
}

type recordingSurface struct {
	mu      sync.Mutex
	buttons []ButtonView
	feeds   []FeedView
}

func (s *recordingSurface) RenderButton(v ButtonView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons = append(s.buttons, v)
}

func (s *recordingSurface) RenderFeed(v FeedView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds = append(s.feeds, v)
}

func (s *recordingSurface) lastButton() ButtonView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buttons[len(s.buttons)-1]
}

func ptr[T any](v T) *T { return &v }
