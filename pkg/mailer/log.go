package mailer

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogMailer is the development mailer: it logs messages instead of sending them
type LogMailer struct {
	logger *logrus.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer creates a new development mailer
func NewLogMailer(logger *logrus.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// GetName returns the mailer name
func (m *LogMailer) GetName() string {
	return "dev"
}

// Send records msg and writes it to the log
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("DEV MODE: email not sent")
	return nil
}

// Sent returns a copy of every message passed to Send
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
