package domain

import (
	"errors"
	"time"
)

// LayoutSnapshot is the persisted form of a single layout.
// Loading flags are not persisted: a restored layout is either assigned or empty.
type LayoutSnapshot struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Snapshot is a serializable draft of a whole session.
type Snapshot struct {
	SessionID  string                    `json:"session_id"`
	Workflow   string                    `json:"workflow"`
	ActiveStep int                       `json:"active_step"`
	Layouts    map[string]LayoutSnapshot `json:"layouts"`
	Warnings   []string                  `json:"warnings,omitempty"`
	SavedAt    time.Time                 `json:"saved_at"`
}

// NewSnapshot creates an empty snapshot for a session.
func NewSnapshot(sessionID, workflow string) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Workflow:  workflow,
		Layouts:   make(map[string]LayoutSnapshot),
	}
}

// IsMissingDependency reports whether err is a dependency gate failure.
func IsMissingDependency(err error) bool {
	return errors.Is(err, ErrMissingDependency)
}
