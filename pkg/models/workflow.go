package models

// Workflow is the authored outreach graph: one trigger and its action nodes.
type Workflow struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Nodes []*WorkflowNode `json:"nodes" validate:"dive"`
}

// SenderIdentity is the From identity used for outgoing email.
type SenderIdentity struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name"`
}

// IsComplete reports whether both the address and the display name are set.
func (s SenderIdentity) IsComplete() bool {
	return s.Email != "" && s.Name != ""
}

// Plan is the validated decision derived from the workflow graph before a run.
type Plan struct {
	DoCall  bool `json:"do_call"`
	DoEmail bool `json:"do_email"`
}

// IsColdOutreach reports whether the plan sends email without a prior call.
func (p Plan) IsColdOutreach() bool {
	return p.DoEmail && !p.DoCall
}

func (p Plan) String() string {
	switch {
	case p.DoCall && p.DoEmail:
		return "call+email"
	case p.DoCall:
		return "call"
	case p.DoEmail:
		return "email"
	default:
		return "none"
	}
}
