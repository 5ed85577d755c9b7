package mail

import (
	"context"
	"sync"

	"ghdigest/internal/platform/logger"
)

// Disabled accepts every message without sending; delivery still counts as handled
type Disabled struct{}

// Send logs and drops m
func (Disabled) Send(ctx context.Context, m Message) error {
	logger.C(ctx).Info().Str("component", "mail").Str("subject", m.Subject).Msg("mail disabled, message dropped")
	return nil
}

// Mock records messages; Fail makes the next sends return the given error
type Mock struct {
	mu   sync.Mutex
	sent []Message
	Fail error
}

// Send implements Provider
func (m *Mock) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of recorded messages
func (m *Mock) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
