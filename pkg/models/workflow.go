package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow is an automation definition: a trigger plus an ordered list of
// actions. Actions are opaque JSON objects; each must carry an "id" field
// so execution output can be keyed per action.
type Workflow struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	TriggerType   string            `json:"trigger_type"`
	TriggerConfig json.RawMessage   `json:"trigger_config"`
	Actions       []json.RawMessage `json:"actions"`
	IsActive      bool              `json:"is_active"`
	CreatedBy     uuid.UUID         `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// WorkflowPatch carries a partial update. Nil fields are left untouched.
type WorkflowPatch struct {
	Name          *string            `json:"name,omitempty"`
	Description   *string            `json:"description,omitempty"`
	TriggerConfig *json.RawMessage   `json:"trigger_config,omitempty"`
	Actions       *[]json.RawMessage `json:"actions,omitempty"`
	IsActive      *bool              `json:"is_active,omitempty"`
}

// ActionID extracts the "id" field from an action object. Returns empty
// string when absent.
func ActionID(action json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(action, &probe); err != nil {
		return ""
	}
	return probe.ID
}
