package notify

import (
	"context"
	"sync"
)

// MemorySink records messages for tests and local development.
type MemorySink struct {
	mu       sync.Mutex
	messages []Message
	fail     error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// FailWith makes every subsequent Send return err.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *MemorySink) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (s *MemorySink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}
