package services

import (
	"fmt"
	"sync"
)

// MockPaymentGateway is a mock implementation of PaymentInterface for testing
type MockPaymentGateway struct {
	mu              sync.Mutex
	createdSessions []CheckoutParams
	CreateErr       error         // when set, session creation fails with this error
	WebhookErr      error         // when set, webhook parsing fails with this error
	WebhookEvent    *WebhookEvent // returned from ParseWebhookEvent when WebhookErr is nil
}

// NewMockPaymentGateway creates a new mock payment gateway
func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

// SetAsMockForTesting sets this mock as the global payment gateway for testing
func (m *MockPaymentGateway) SetAsMockForTesting() {
	SetPaymentGateway(m)
}

// CreateCheckoutSession records the params and returns a fixed session
func (m *MockPaymentGateway) CreateCheckoutSession(params CheckoutParams) (*CheckoutSession, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.mu.Lock()
	m.createdSessions = append(m.createdSessions, params)
	n := len(m.createdSessions)
	m.mu.Unlock()

	id := fmt.Sprintf("cs_test_mock_%d", n)
	return &CheckoutSession{
		ID:  id,
		URL: "https://checkout.stripe.com/pay/" + id,
	}, nil
}

// ParseWebhookEvent returns the configured event or error
func (m *MockPaymentGateway) ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error) {
	if m.WebhookErr != nil {
		return nil, m.WebhookErr
	}
	if m.WebhookEvent != nil {
		return m.WebhookEvent, nil
	}
	return &WebhookEvent{Type: "ignored"}, nil
}

// CreatedSessions returns a copy of all recorded session params
func (m *MockPaymentGateway) CreatedSessions() []CheckoutParams {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]CheckoutParams, len(m.createdSessions))
	copy(sessions, m.createdSessions)
	return sessions
}
