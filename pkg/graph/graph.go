// Package graph validates an authored outreach workflow and derives the
// execution plan the engine follows.
package graph

import (
	"github.com/dukex/outreach/pkg/models"
)

// Graph is an indexed, read-only view over the workflow nodes.
type Graph struct {
	nodes   []*models.WorkflowNode
	byID    map[string]*models.WorkflowNode
	trigger *models.WorkflowNode
	actions []*models.WorkflowNode
	edges   []models.Edge
}

// New indexes nodes and derives edges. Node kinds are re-checked so graphs
// built in code get the same guarantees as parsed documents.
func New(nodes []*models.WorkflowNode) (*Graph, error) {
	g := &Graph{
		nodes: make([]*models.WorkflowNode, 0, len(nodes)),
		byID:  make(map[string]*models.WorkflowNode, len(nodes)),
	}

	for _, node := range nodes {
		if node == nil {
			return nil, ErrNilNode
		}

		if node.ID == "" {
			return nil, ErrEmptyNodeID
		}

		if _, exists := g.byID[node.ID]; exists {
			return nil, &NodeError{NodeID: node.ID, Err: ErrDuplicateNodeID}
		}

		if _, err := models.ParseNodeKind(string(node.Kind)); err != nil {
			return nil, &NodeError{NodeID: node.ID, Err: err}
		}

		g.byID[node.ID] = node
		g.nodes = append(g.nodes, node)

		switch {
		case node.IsTrigger():
			// Only one trigger type exists; the first configured one wins.
			if g.trigger == nil || (!g.trigger.IsConfigured() && node.IsConfigured()) {
				g.trigger = node
			}
		case node.IsAction():
			g.actions = append(g.actions, node)
		}
	}

	g.edges = deriveEdges(g.trigger, g.actions)

	return g, nil
}

// deriveEdges links the trigger to the first action, then each action to the
// next one in declaration order.
func deriveEdges(trigger *models.WorkflowNode, actions []*models.WorkflowNode) []models.Edge {
	edges := make([]models.Edge, 0, len(actions))

	if trigger != nil && len(actions) > 0 {
		edges = append(edges, models.Edge{From: trigger.ID, To: actions[0].ID})
	}

	for i := 0; i < len(actions)-1; i++ {
		edges = append(edges, models.Edge{From: actions[i].ID, To: actions[i+1].ID})
	}

	return edges
}

// Nodes returns the indexed nodes in declaration order.
func (g *Graph) Nodes() []*models.WorkflowNode {
	return g.nodes
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (*models.WorkflowNode, bool) {
	node, ok := g.byID[id]

	return node, ok
}

// Edges returns the derived edges.
func (g *Graph) Edges() []models.Edge {
	return g.edges
}

// HasRunnablePath reports whether the trigger leads to at least one action.
func (g *Graph) HasRunnablePath() bool {
	return g.trigger != nil && len(g.edges) > 0 && g.edges[0].From == g.trigger.ID
}

func (g *Graph) HasConfiguredTrigger() bool {
	return g.trigger.IsConfigured()
}

func (g *Graph) HasCallAction() bool {
	return g.hasAction(models.NodeKindCallAction, false)
}

func (g *Graph) HasEmailAction() bool {
	return g.hasAction(models.NodeKindEmailAction, false)
}

func (g *Graph) HasConfiguredEmailAction() bool {
	return g.hasAction(models.NodeKindEmailAction, true)
}

func (g *Graph) hasAction(kind models.NodeKind, configured bool) bool {
	for _, action := range g.actions {
		if action.Kind != kind {
			continue
		}

		if !configured || action.IsConfigured() {
			return true
		}
	}

	return false
}

// Validate decides whether a run is executable and what it should do.
// Action order is fixed as call then email regardless of declaration order;
// extra action nodes of the same kind do not change the plan.
func (g *Graph) Validate(sender models.SenderIdentity) (models.Plan, error) {
	if !g.HasConfiguredTrigger() {
		return models.Plan{}, ErrMissingTrigger
	}

	doCall := g.HasCallAction()
	hasEmail := g.HasEmailAction()

	if !doCall && !hasEmail {
		return models.Plan{}, ErrNoAction
	}

	if !doCall {
		if !sender.IsComplete() {
			return models.Plan{}, ErrMissingEmailConfig
		}

		return models.Plan{DoEmail: true}, nil
	}

	return models.Plan{DoCall: true, DoEmail: g.HasConfiguredEmailAction()}, nil
}

// Validate is a shorthand for New followed by Graph.Validate.
func Validate(workflow *models.Workflow, sender models.SenderIdentity) (models.Plan, error) {
	if workflow == nil {
		return models.Plan{}, ErrMissingTrigger
	}

	g, err := New(workflow.Nodes)
	if err != nil {
		return models.Plan{}, err
	}

	return g.Validate(sender)
}
