package session

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/schema"
	"github.com/aretw0/layouts/pkg/wizard"
)

// Session is one user's walk through a workflow.
type Session struct {
	ID        string
	Workflow  *schema.Workflow
	Layouts   *layout.Manager
	Wizard    *wizard.Controller
	CreatedAt time.Time

	mu        sync.Mutex
	lastSaved *domain.Snapshot
	mounted   layout.Batch
}

// Mounted waits for the hydrations started when the session was created.
func (s *Session) Mounted(ctx context.Context) error {
	return s.mounted.Wait(ctx)
}

// Snapshot captures the current draft of the session.
func (s *Session) Snapshot() *domain.Snapshot {
	snap := domain.NewSnapshot(s.ID, s.Workflow.Name)
	snap.ActiveStep = s.Wizard.Active()
	snap.Warnings = s.Wizard.Warnings()
	snap.Layouts = s.Layouts.Export()
	snap.SavedAt = time.Now().UTC()
	return snap
}

// markSaved records snap as the last persisted draft and returns what changed since the previous one.
func (s *Session) markSaved(snap *domain.Snapshot) *domain.SnapshotDiff {
	s.mu.Lock()
	defer s.mu.Unlock()
	diff := domain.Diff(s.lastSaved, snap)
	s.lastSaved = snap
	return diff
}
