package services

import "sync"

// MockMailer is a mock implementation of MailerInterface for testing
type MockMailer struct {
	mu      sync.Mutex
	sent    []EmailMessage
	SendErr error // when set, Send calls fail with this error
}

// NewMockMailer creates a new mock mailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// SetAsMockForTesting sets this mock as the global mailer instance for testing
func (m *MockMailer) SetAsMockForTesting() {
	SetMailer(m)
}

// Send records the message instead of delivering it
func (m *MockMailer) Send(msg EmailMessage) error {
	if m.SendErr != nil {
		return m.SendErr
	}

	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// SentMessages returns a copy of all recorded messages (for testing assertions)
func (m *MockMailer) SentMessages() []EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages := make([]EmailMessage, len(m.sent))
	copy(messages, m.sent)
	return messages
}

// SentCount returns the number of recorded messages
func (m *MockMailer) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Clear removes all recorded messages
func (m *MockMailer) Clear() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}
