package domain

import (
	"reflect"
	"slices"
)

// SnapshotDiff represents the changes between two drafts of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	ActiveStep *int `json:"active_step,omitempty"`

	// Layouts contains only changed, added or deleted layouts.
	// For deletions, the key is present with a nil value.
	Layouts map[string]*LayoutSnapshot `json:"layouts,omitempty"`

	// Warnings is the full new list, present only when it changed.
	Warnings []string `json:"warnings,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap (initial load).
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{SessionID: newSnap.SessionID}
	if oldSnap == nil || oldSnap.ActiveStep != newSnap.ActiveStep {
		active := newSnap.ActiveStep
		diff.ActiveStep = &active
	}
	if oldSnap == nil {
		if len(newSnap.Warnings) > 0 {
			diff.Warnings = slices.Clone(newSnap.Warnings)
		}
	} else if !slices.Equal(oldSnap.Warnings, newSnap.Warnings) {
		diff.Warnings = slices.Clone(newSnap.Warnings)
		if diff.Warnings == nil {
			diff.Warnings = []string{}
		}
	}
	diff.Layouts = diffLayouts(oldSnap, newSnap)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffLayouts(oldSnap, newSnap *Snapshot) map[string]*LayoutSnapshot {
	delta := make(map[string]*LayoutSnapshot)

	for k, nv := range newSnap.Layouts {
		if oldSnap != nil {
			if ov, ok := oldSnap.Layouts[k]; ok && reflect.DeepEqual(ov, nv) {
				continue
			}
		}
		v := nv
		delta[k] = &v
	}
	if oldSnap != nil {
		for k := range oldSnap.Layouts {
			if _, ok := newSnap.Layouts[k]; !ok {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.ActiveStep == nil &&
		d.Warnings == nil &&
		len(d.Layouts) == 0
}
