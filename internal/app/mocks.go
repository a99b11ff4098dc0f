package app

import "taskmarket_backend/internal/email"

// MockEmailProvider stands in for SMTP during tests and local development,
// when no SMTP host is configured.
type MockEmailProvider struct{}

func (m *MockEmailProvider) Send(email *email.Email) error { return nil }
func (m *MockEmailProvider) Validate() error               { return nil }
func (m *MockEmailProvider) Close() error                  { return nil }
