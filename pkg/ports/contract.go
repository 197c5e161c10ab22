package ports

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	draft := func(id string) *domain.Snapshot {
		snap := domain.NewSnapshot(id, "restart-instance")
		snap.ActiveStep = 1
		snap.Warnings = []string{"instance is running"}
		snap.SavedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		snap.Layouts["project"] = domain.LayoutSnapshot{Data: map[string]any{"id": "infra"}}
		snap.Layouts["instances"] = domain.LayoutSnapshot{
			Data:  []any{},
			Error: domain.MissingDependency("project", "instances"),
		}
		return snap
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := draft(sessionID)
		require.NoError(t, store.Save(ctx, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "restart-instance", loaded.Workflow)
		assert.Equal(t, 1, loaded.ActiveStep)
		assert.Equal(t, []string{"instance is running"}, loaded.Warnings)
		assert.True(t, snap.SavedAt.Equal(loaded.SavedAt))
		assert.Equal(t, map[string]any{"id": "infra"}, loaded.Layouts["project"].Data)

		info := loaded.Layouts["instances"].Error
		require.NotNil(t, info)
		assert.Equal(t, http.StatusNotFound, info.Status)
		assert.True(t, domain.IsMissingDependency(info), "dependency gate errors survive persistence")
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := draft(sessionID)
		require.NoError(t, store.Save(ctx, snap))

		snap.Layouts["project"].Data.(map[string]any)["id"] = "mutated"
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "infra", loaded.Layouts["project"].Data.(map[string]any)["id"])

		loaded.Layouts["project"].Data.(map[string]any)["id"] = "mutated"
		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "infra", again.Layouts["project"].Data.(map[string]any)["id"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, draft(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")
		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, draft(id1)))
		require.NoError(t, store.Save(ctx, draft(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
