//go:build unit || e2e

package fake

import (
	"context"
	"sync"

	"todo-notifier/internal/usecase/shared"
)

// Sender records every confirmed message.
type Sender struct {
	mu   sync.Mutex
	sent []shared.EmailMessage

	// Err fails every send
	Err error
	// FailFor fails sends to these recipients only
	FailFor map[string]error
	// Hang blocks until Release is closed, ignoring ctx
	Hang    bool
	Release chan struct{}
	// Before runs ahead of every send, outside the lock
	Before func()
}

func NewSender() *Sender {
	return &Sender{Release: make(chan struct{})}
}

func (s *Sender) Send(ctx context.Context, msg shared.EmailMessage) error {
	if s.Before != nil {
		s.Before()
	}
	if s.Hang {
		<-s.Release
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err, ok := s.FailFor[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *Sender) Sent() []shared.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]shared.EmailMessage(nil), s.sent...)
}

func (s *Sender) SentTo(email string) []shared.EmailMessage {
	var out []shared.EmailMessage
	for _, m := range s.Sent() {
		if m.To == email {
			out = append(out, m)
		}
	}
	return out
}

func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.Err = nil
	s.FailFor = nil
}
