// Package models defines the core domain models for lead outreach workflows.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind is the closed set of node kinds understood by the engine.
type NodeKind string

const (
	NodeKindTrigger     NodeKind = "trigger"      // Lead source
	NodeKindCallAction  NodeKind = "call_action"  // AI phone call
	NodeKindEmailAction NodeKind = "email_action" // Follow-up or cold email
)

// NodeKinds lists every supported kind in canonical order.
var NodeKinds = []NodeKind{NodeKindTrigger, NodeKindCallAction, NodeKindEmailAction}

// UnknownNodeKindError is returned when a node kind is not one of NodeKinds.
type UnknownNodeKindError struct {
	Kind string
}

func (e *UnknownNodeKindError) Error() string {
	return fmt.Sprintf("unknown node kind %q", e.Kind)
}

// ParseNodeKind converts a raw kind into a NodeKind.
func ParseNodeKind(raw string) (NodeKind, error) {
	kind := NodeKind(strings.ToLower(strings.TrimSpace(raw)))

	for _, known := range NodeKinds {
		if kind == known {
			return kind, nil
		}
	}

	return "", &UnknownNodeKindError{Kind: raw}
}

// UnmarshalJSON rejects unknown kinds while decoding.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind, err := ParseNodeKind(raw)
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// IsAction reports whether the kind is one of the action kinds.
func (k NodeKind) IsAction() bool {
	return k == NodeKindCallAction || k == NodeKindEmailAction
}

// WorkflowNode represents a node authored in the workflow editor.
// The engine never mutates nodes.
type WorkflowNode struct {
	ID         string         `json:"id"                   validate:"required"`
	Kind       NodeKind       `json:"kind"                 validate:"required,oneof=trigger call_action email_action"`
	Name       string         `json:"name,omitempty"`
	Configured bool           `json:"configured"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// IsConfigured reports whether the node has been configured in the editor.
// For a trigger this means at least one lead is attached, for an email
// action that sender settings were saved.
func (n *WorkflowNode) IsConfigured() bool {
	return n != nil && n.Configured
}

func (n *WorkflowNode) IsTrigger() bool {
	return n.Kind == NodeKindTrigger
}

func (n *WorkflowNode) IsAction() bool {
	return n.Kind.IsAction()
}

// Edge connects two nodes. Edges are derived from node order, never authored.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
