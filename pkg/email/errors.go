package email

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBody       = errors.New("generated email body is empty")
	ErrNoRecipient     = errors.New("lead has no email address")
	ErrMissingSender   = errors.New("sender email is not configured")
	ErrMissingSMTPHost = errors.New("SMTP host is not configured")
)

// CompositionError is returned when the email copy could not be generated.
type CompositionError struct {
	Lead string
	Err  error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("failed to compose email for %s: %v", e.Lead, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// DeliveryError is returned when the mail transport rejects a message.
type DeliveryError struct {
	Lead    string
	To      string
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send email to %s <%s>: %s", e.Lead, e.To, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func IsCompositionError(err error) bool {
	var compositionErr *CompositionError

	return errors.As(err, &compositionErr)
}

func IsDeliveryError(err error) bool {
	var deliveryErr *DeliveryError

	return errors.As(err, &deliveryErr)
}
