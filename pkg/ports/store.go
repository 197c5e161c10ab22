package ports

import (
	"context"

	"github.com/aretw0/layouts/pkg/domain"
)

// SnapshotStore defines the interface for persisting session drafts.
// This lets a user leave a wizard half way and resume it later.
type SnapshotStore interface {
	// Save persists the snapshot under its SessionID.
	Save(ctx context.Context, snapshot *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID. Deleting a missing
	// session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
