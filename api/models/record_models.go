// api/models/record_models.go
package models

import (
	"encoding/json"

	"github.com/Annany2002/nebula-forms/internal/editor"
)

// --- Record Request/Response Structs ---

// RecordRequest is the body of add and edit requests, keyed by column name
type RecordRequest struct {
	Values map[string]any `json:"values" binding:"required"`
}

// RecordResponse reports a completed insert, update or delete
type RecordResponse struct {
	Message string `json:"message"`
	editor.Result
}

// MCPRequest wraps one JSON-RPC message for the profile's MCP server
type MCPRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}
