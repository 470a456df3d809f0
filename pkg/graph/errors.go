package graph

import (
	"errors"
	"fmt"
)

// Validation errors. Each one is fatal to a run and is reported before any
// lead is touched.
var (
	ErrMissingTrigger     = errors.New("workflow has no configured lead source trigger")
	ErrNoAction           = errors.New("workflow has no call or email action")
	ErrMissingEmailConfig = errors.New("email-only workflow requires sender email and name")
)

// Structural errors raised while indexing nodes.
var (
	ErrNilNode         = errors.New("workflow contains a nil node")
	ErrEmptyNodeID     = errors.New("workflow node has an empty id")
	ErrDuplicateNodeID = errors.New("workflow contains duplicate node ids")
	ErrInvalidDocument = errors.New("invalid workflow document")
)

// NodeError wraps a structural error with the offending node.
type NodeError struct {
	NodeID string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.NodeID, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err prevents a run from starting.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingTrigger) ||
		errors.Is(err, ErrNoAction) ||
		errors.Is(err, ErrMissingEmailConfig)
}

// IsStructuralError reports whether err comes from a malformed node set.
func IsStructuralError(err error) bool {
	return errors.Is(err, ErrNilNode) ||
		errors.Is(err, ErrEmptyNodeID) ||
		errors.Is(err, ErrDuplicateNodeID) ||
		errors.Is(err, ErrInvalidDocument)
}

// Reason returns the operator-facing message logged for a validation failure.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingTrigger):
		return "Please add and configure the lead source trigger first"
	case errors.Is(err, ErrNoAction):
		return "Please add at least one action (Call or Email)"
	case errors.Is(err, ErrMissingEmailConfig):
		return "Please configure email settings first"
	default:
		return err.Error()
	}
}
