// Package leads holds the in-memory lead collection that a run works on.
package leads

import (
	"sync"

	"github.com/dukex/outreach/pkg/models"
)

// Store is the source of truth for lead status. Editors may add and remove
// leads only while no run is active; during a run UpdateStatus is the only
// mutation path.
type Store struct {
	mu      sync.RWMutex
	leads   []models.Lead
	running bool
}

// NewStore creates a store seeded with leads. Leads without a status enter as pending.
func NewStore(leads ...models.Lead) *Store {
	s := &Store{leads: make([]models.Lead, 0, len(leads))}

	for _, lead := range leads {
		s.leads = append(s.leads, withDefaults(lead))
	}

	return s
}

func withDefaults(lead models.Lead) models.Lead {
	if lead.Status == "" {
		lead.Status = models.LeadStatusPending
	}

	return lead
}

// Add appends a lead.
func (s *Store) Add(leads ...models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunActive
	}

	for _, lead := range leads {
		s.leads = append(s.leads, withDefaults(lead))
	}

	return nil
}

// Remove deletes the lead at index.
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunActive
	}

	if index < 0 || index >= len(s.leads) {
		return ErrIndexOutOfRange
	}

	s.leads = append(s.leads[:index], s.leads[index+1:]...)

	return nil
}

// All returns a copy of every lead in import order.
func (s *Store) All() []models.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Lead, len(s.leads))
	copy(out, s.leads)

	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.leads)
}

// PendingLen counts the leads a run would process.
func (s *Store) PendingLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0

	for _, lead := range s.leads {
		if lead.Status == models.LeadStatusPending {
			n++
		}
	}

	return n
}

// Get returns the lead matching key.
func (s *Store) Get(key models.LeadKey) (models.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(key); i >= 0 {
		return s.leads[i], true
	}

	return models.Lead{}, false
}

// PendingSnapshot returns a private copy of the leads that are pending right now.
// Later edits to the store do not affect the returned slice.
func (s *Store) PendingSnapshot() []models.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]models.Lead, 0, len(s.leads))

	for _, lead := range s.leads {
		if lead.Status == models.LeadStatusPending {
			pending = append(pending, lead)
		}
	}

	return pending
}

// UpdateOption sets optional fields during UpdateStatus.
type UpdateOption func(*models.Lead)

// WithCallDetails records the call transcript and summary.
func WithCallDetails(transcript, summary string) UpdateOption {
	return func(lead *models.Lead) {
		lead.CallTranscript = transcript
		lead.CallSummary = summary
	}
}

// UpdateStatus sets the status of the lead identified by key and returns the
// updated copy. Call-terminal statuses are also kept in CallOutcome so an
// email-sent override does not lose them.
func (s *Store) UpdateStatus(key models.LeadKey, status models.LeadStatus, opts ...UpdateOption) (models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return models.Lead{}, &LeadError{Op: "update", Name: key.Name, Phone: key.Phone, Err: ErrLeadNotFound}
	}

	lead := &s.leads[i]
	lead.Status = status

	if status.IsCallTerminal() {
		lead.CallOutcome = status
	}

	for _, opt := range opts {
		opt(lead)
	}

	return *lead, nil
}

// Reset puts every lead back to pending and drops call details.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunActive
	}

	for i := range s.leads {
		if s.leads[i].Status == models.LeadStatusInvalid {
			continue
		}

		s.leads[i].Status = models.LeadStatusPending
		s.leads[i].CallOutcome = ""
		s.leads[i].CallTranscript = ""
		s.leads[i].CallSummary = ""
	}

	return nil
}

// BeginRun locks the store against editor changes for the duration of a run.
func (s *Store) BeginRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunActive
	}

	s.running = true

	return nil
}

// EndRun releases the lock taken by BeginRun.
func (s *Store) EndRun() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
}

// Running reports whether a run holds the store.
func (s *Store) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running
}

func (s *Store) indexOf(key models.LeadKey) int {
	for i := range s.leads {
		if s.leads[i].Key() == key {
			return i
		}
	}

	return -1
}
