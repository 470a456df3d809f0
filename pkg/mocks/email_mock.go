package mocks

import (
	"context"

	"github.com/dukex/outreach/pkg/email"
	"github.com/stretchr/testify/mock"
)

// MockGenerator is a mock implementation of email.Generator interface.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt email.Prompt) (string, error) {
	args := m.Called(ctx, prompt)

	return args.String(0), args.Error(1)
}

// MockMailer is a mock implementation of email.Mailer interface.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, message email.Message) (string, error) {
	args := m.Called(ctx, message)

	return args.String(0), args.Error(1)
}
