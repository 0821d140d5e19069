package store

import (
	"encoding/json"
	"time"

	"github.com/innkeep/innkeep/pkg/schema"
)

// Run is the persisted representation of one pipeline execution.
type Run struct {
	ID          string           `json:"id"`
	Query       string           `json:"query"`
	Status      schema.RunStatus `json:"status"`
	FinalState  json.RawMessage  `json:"final_state,omitempty"`
	Error       json.RawMessage  `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Event is an immutable entry in the run's audit log.
type Event struct {
	ID        int64           `json:"id"`
	RunID     string          `json:"run_id"`
	Node      string          `json:"node,omitempty"`
	Type      string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  int64           `json:"sequence"`
}

// RunUpdate carries the mutable fields of a run. Nil fields are left untouched.
type RunUpdate struct {
	Status      *schema.RunStatus
	FinalState  json.RawMessage
	Error       json.RawMessage
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// RunFilter narrows ListRuns results.
type RunFilter struct {
	Status schema.RunStatus
	Limit  int
}

// EventFilter narrows GetEventsByType results.
type EventFilter struct {
	RunID string
	Node  string
	Since *time.Time
	Limit int
}
