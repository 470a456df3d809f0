package models

import "strings"

// LeadStatus is the per-run state of a lead.
type LeadStatus string

const (
	LeadStatusPending   LeadStatus = "pending"
	LeadStatusCalling   LeadStatus = "calling"
	LeadStatusCompleted LeadStatus = "completed"
	LeadStatusFailed    LeadStatus = "failed"
	LeadStatusInvalid   LeadStatus = "invalid"    // Set only by import validation
	LeadStatusEmailSent LeadStatus = "email-sent" // Display override after a successful send
)

// IsCallTerminal reports whether the status ends a call.
func (s LeadStatus) IsCallTerminal() bool {
	return s == LeadStatusCompleted || s == LeadStatusFailed
}

// LeadKey is the natural identity of a lead. Position in the store is not stable.
type LeadKey struct {
	Name  string
	Phone string
}

// Lead is a contact targeted by the workflow.
type Lead struct {
	Name           string     `json:"name"                      validate:"required"`
	Phone          string     `json:"phone"                     validate:"required"`
	Email          string     `json:"email"                     validate:"omitempty,email"`
	CountryCode    string     `json:"country_code"`
	Status         LeadStatus `json:"status"`
	CallTranscript string     `json:"call_transcript,omitempty"`
	CallSummary    string     `json:"call_summary,omitempty"`

	// CallOutcome keeps the call-terminal status after Status has been
	// overridden by email-sent.
	CallOutcome LeadStatus `json:"call_outcome,omitempty"`
}

func (l Lead) Key() LeadKey {
	return LeadKey{Name: l.Name, Phone: l.Phone}
}

// DialNumber returns the country code followed by the digits of the phone number.
func (l Lead) DialNumber() string {
	return l.CountryCode + DigitsOnly(l.Phone)
}

// DigitsOnly strips every non-digit rune from s.
func DigitsOnly(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
