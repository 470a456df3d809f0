// Package telephony defines the provider-agnostic contract for placing AI
// voice calls and querying their status, plus provider adapters.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Provider places outbound calls and reports their progress.
// No provider SDK or HTTP calls should happen outside adapters.
type Provider interface {
	Name() string
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
	CallStatus(ctx context.Context, callID string) (CallStatus, error)
}

// DispatchRequest asks the provider to dial ToNumber with an assistant.
type DispatchRequest struct {
	ToNumber     string `json:"to_number"`
	AssistantRef string `json:"assistant_ref,omitempty"`
}

// DispatchResult identifies the call created by the provider.
type DispatchResult struct {
	CallID string `json:"call_id"`
	Status Status `json:"status,omitempty"`
}

// Status is the provider's call status.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in-progress"
	StatusForwarding Status = "forwarding"
	StatusCompleted  Status = "completed"
	StatusEnded      Status = "ended"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
)

// IsSuccess reports whether the call ended normally.
func (s Status) IsSuccess() bool {
	return s == StatusCompleted || s == StatusEnded
}

// IsFailure reports whether the call ended abnormally.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusError
}

// IsTerminal reports whether polling should stop. Unknown statuses are transient.
func (s Status) IsTerminal() bool {
	return s.IsSuccess() || s.IsFailure()
}

// CallStatus is a point-in-time view of a call.
type CallStatus struct {
	CallID      string  `json:"call_id"`
	Status      Status  `json:"status"`
	Transcript  string  `json:"transcript,omitempty"`
	Summary     string  `json:"summary,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	EndedReason string  `json:"ended_reason,omitempty"`
}

// ErrCallIDRequired is returned when a status query has no call id.
var ErrCallIDRequired = errors.New("call ID is required")

// APIError is a non-success response from a provider API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

// Detail returns the provider message, falling back to the HTTP status text.
func (e *APIError) Detail() string {
	if e.Message != "" {
		return e.Message
	}

	return http.StatusText(e.StatusCode)
}
