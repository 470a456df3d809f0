package mocks

import (
	"context"

	"github.com/dukex/outreach/pkg/telephony"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of telephony.Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	args := m.Called()

	return args.String(0)
}

func (m *MockProvider) Dispatch(ctx context.Context, req telephony.DispatchRequest) (telephony.DispatchResult, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(telephony.DispatchResult), args.Error(1)
}

func (m *MockProvider) CallStatus(ctx context.Context, callID string) (telephony.CallStatus, error) {
	args := m.Called(ctx, callID)

	return args.Get(0).(telephony.CallStatus), args.Error(1)
}
