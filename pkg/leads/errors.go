package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrRunActive is returned for edits attempted while a run holds the store.
	ErrRunActive = errors.New("lead store is locked by an active run")

	// ErrLeadNotFound indicates no lead matches the (name, phone) key.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrIndexOutOfRange is returned by Remove for an invalid position.
	ErrIndexOutOfRange = errors.New("lead index out of range")

	// ErrMissingColumns is returned when an import lacks name, phone or email columns.
	ErrMissingColumns = errors.New(`CSV must contain "Name", "Phone", and "Email" columns`)
)

// LeadError wraps a store error with the lead it concerns.
type LeadError struct {
	Op    string
	Name  string
	Phone string
	Err   error
}

func (e *LeadError) Error() string {
	return fmt.Sprintf("%s lead %s (%s): %v", e.Op, e.Name, e.Phone, e.Err)
}

func (e *LeadError) Unwrap() error {
	return e.Err
}

func IsRunActive(err error) bool {
	return errors.Is(err, ErrRunActive)
}

func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}
