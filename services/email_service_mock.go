package services

import (
	"context"
	"errors"
	"sync"
)

// ErrMockEmailFailed is returned by MockEmailService when Fail is set
var ErrMockEmailFailed = errors.New("mock email provider unavailable")

// SentEmail is one email captured by MockEmailService
type SentEmail struct {
	Kind    string // "request_received" or "response"
	To      string
	Name    string
	Request *RequestEmailDetails
	Offer   *ResponseEmailDetails
}

// MockEmailService records emails instead of sending them
type MockEmailService struct {
	mu   sync.Mutex
	sent []SentEmail

	// Fail makes every send return ErrMockEmailFailed after recording it
	Fail bool
}

// NewMockEmailService creates a new mock email service
func NewMockEmailService() *MockEmailService {
	return &MockEmailService{}
}

// SetAsMockForTesting sets this mock as the global email service instance
func (m *MockEmailService) SetAsMockForTesting() {
	SetEmailService(m)
}

func (m *MockEmailService) SendCustomizationRequestReceivedEmail(_ context.Context, toEmail, name string, details RequestEmailDetails) error {
	m.record(SentEmail{Kind: "request_received", To: toEmail, Name: name, Request: &details})
	if m.Fail {
		return ErrMockEmailFailed
	}
	return nil
}

func (m *MockEmailService) SendCustomizationResponseEmail(_ context.Context, toEmail, name string, details ResponseEmailDetails) error {
	m.record(SentEmail{Kind: "response", To: toEmail, Name: name, Offer: &details})
	if m.Fail {
		return ErrMockEmailFailed
	}
	return nil
}

func (m *MockEmailService) record(e SentEmail) {
	m.mu.Lock()
	m.sent = append(m.sent, e)
	m.mu.Unlock()
}

// Sent returns a copy of the captured emails
func (m *MockEmailService) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.sent...)
}
