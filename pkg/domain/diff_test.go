package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiff(t *testing.T) {
	one, two := 1, 2
	base := func() *Snapshot {
		s := NewSnapshot("sess-1", "restart-instance")
		s.ActiveStep = 1
		s.Layouts["project"] = LayoutSnapshot{Data: map[string]any{"id": "infra"}}
		s.Layouts["instances"] = LayoutSnapshot{Data: []any{}}
		return s
	}

	tests := []struct {
		name   string
		old    *Snapshot
		mutate func(*Snapshot)
		want   *SnapshotDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			want: &SnapshotDiff{
				SessionID:  "sess-1",
				ActiveStep: &one,
				Layouts: map[string]*LayoutSnapshot{
					"project":   {Data: map[string]any{"id": "infra"}},
					"instances": {Data: []any{}},
				},
			},
		},
		{
			name: "No Changes",
			old:  base(),
			want: nil,
		},
		{
			name: "Step and Layout Change",
			old:  base(),
			mutate: func(s *Snapshot) {
				s.ActiveStep = 2
				s.Layouts["instances"] = LayoutSnapshot{Data: []any{"vm-1"}}
			},
			want: &SnapshotDiff{
				SessionID:  "sess-1",
				ActiveStep: &two,
				Layouts: map[string]*LayoutSnapshot{
					"instances": {Data: []any{"vm-1"}},
				},
			},
		},
		{
			name: "Deletion and Cleared Warnings",
			old: func() *Snapshot {
				s := base()
				s.Warnings = []string{"running"}
				return s
			}(),
			mutate: func(s *Snapshot) {
				delete(s.Layouts, "instances")
			},
			want: &SnapshotDiff{
				SessionID: "sess-1",
				Layouts:   map[string]*LayoutSnapshot{"instances": nil},
				Warnings:  []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base()
			if tt.mutate != nil {
				tt.mutate(next)
			}
			got := Diff(tt.old, next)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Diff() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiff_NilNew(t *testing.T) {
	if Diff(NewSnapshot("a", "b"), nil) != nil {
		t.Error("expected nil diff for nil snapshot")
	}
}
