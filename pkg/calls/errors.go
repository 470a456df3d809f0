package calls

import (
	"errors"
	"fmt"

	"github.com/dukex/outreach/pkg/telephony"
)

// DispatchError is returned when the provider refuses to place a call.
type DispatchError struct {
	Lead    string
	Number  string
	Message string
	Err     error
}

func newDispatchError(lead, number string, err error) *DispatchError {
	message := err.Error()

	var apiErr *telephony.APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Detail()
	}

	return &DispatchError{Lead: lead, Number: number, Message: message, Err: err}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to dispatch call to %s at %s: %s", e.Lead, e.Number, e.Message)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// IsDispatchError reports whether err came from a refused dispatch.
func IsDispatchError(err error) bool {
	var dispatchErr *DispatchError

	return errors.As(err, &dispatchErr)
}
