package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukex/outreach/pkg/models"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// definitionSchema is the JSON schema of a workflow document.
const definitionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "id":   {"type": "string"},
    "name": {"type": "string"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind"],
        "properties": {
          "id":         {"type": "string"},
          "kind":       {"type": "string", "enum": ["trigger", "call_action", "email_action"]},
          "name":       {"type": "string"},
          "configured": {"type": "boolean"},
          "attributes": {"type": "object"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(definitionSchema)

// ParseDefinition decodes a workflow document. Unknown node kinds and
// malformed documents are rejected here, before a graph is ever built.
// Nodes without an id get a generated one.
func ParseDefinition(data []byte) (*models.Workflow, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(messages, "; "))
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	for _, node := range workflow.Nodes {
		if node != nil && node.ID == "" {
			node.ID = "node-" + uuid.NewString()
		}
	}

	if _, err := New(workflow.Nodes); err != nil {
		return nil, err
	}

	return &workflow, nil
}
