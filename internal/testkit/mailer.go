package testkit

import (
	"context"
	"sync"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/mail"
)

// Mailer records every message it is asked to send. When Err is set, Send
// fails with it and records nothing.
type Mailer struct {
	mu       sync.Mutex
	Err      error
	messages []mail.Message
}

func (m *Mailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Mailer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

func (m *Mailer) Messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Last returns the most recent message, or the zero value when none was sent.
func (m *Mailer) Last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return mail.Message{}
	}
	return m.messages[len(m.messages)-1]
}
