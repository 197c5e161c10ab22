package layout_test

import (
	"testing"

	"github.com/aretw0/layouts/pkg/layout"
	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	type tags map[string]string

	tests := []struct {
		name      string
		existing  any
		incoming  any
		overwrite bool
		want      any
	}{
		{
			name:     "array replaces empty default map",
			existing: map[string]any{},
			incoming: []any{"a"},
			want:     []any{"a"},
		},
		{
			name:     "map replaces array",
			existing: []any{"a"},
			incoming: map[string]any{"x": 1},
			want:     map[string]any{"x": 1},
		},
		{
			name:     "arrays concatenate in order",
			existing: []any{"a", "b"},
			incoming: []any{"c"},
			want:     []any{"a", "b", "c"},
		},
		{
			name:     "typed slices keep their type",
			existing: []string{"a"},
			incoming: []string{"b"},
			want:     []string{"a", "b"},
		},
		{
			name:     "mixed slices degrade to []any",
			existing: []string{"a"},
			incoming: []int{1},
			want:     []any{"a", 1},
		},
		{
			name:     "maps shallow merge with incoming winning",
			existing: map[string]any{"x": 1, "y": map[string]any{"deep": true}},
			incoming: map[string]any{"y": 2, "z": 3},
			want:     map[string]any{"x": 1, "y": 2, "z": 3},
		},
		{
			name:     "typed maps keep their type",
			existing: tags{"env": "prod"},
			incoming: tags{"team": "infra"},
			want:     tags{"env": "prod", "team": "infra"},
		},
		{
			name:      "overwrite replaces arrays",
			existing:  []any{"a"},
			incoming:  []any{"b"},
			overwrite: true,
			want:      []any{"b"},
		},
		{
			name:      "overwrite replaces maps",
			existing:  map[string]any{"x": 1},
			incoming:  map[string]any{"y": 2},
			overwrite: true,
			want:      map[string]any{"y": 2},
		},
		{
			name:     "scalar replaces map",
			existing: map[string]any{"x": 1},
			incoming: "ready",
			want:     "ready",
		},
		{
			name:     "nil incoming keeps existing",
			existing: map[string]any{"x": 1},
			incoming: nil,
			want:     map[string]any{"x": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layout.Merge(tt.existing, tt.incoming, tt.overwrite)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := []any{"a"}
	incoming := []any{"b"}
	_ = layout.Merge(existing, incoming, false)

	if diff := cmp.Diff([]any{"a"}, existing); diff != "" {
		t.Errorf("existing mutated (-want +got):\n%s", diff)
	}

	a := map[string]any{"x": 1}
	_ = layout.Merge(a, map[string]any{"y": 2}, false)
	if diff := cmp.Diff(map[string]any{"x": 1}, a); diff != "" {
		t.Errorf("existing map mutated (-want +got):\n%s", diff)
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"tags":  []any{"a", map[string]any{"b": 1}},
		"owner": map[string]any{"name": "ops"},
	}
	out := layout.Clone(src).(map[string]any)
	if diff := cmp.Diff(src, out); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	out["owner"].(map[string]any)["name"] = "dev"
	out["tags"].([]any)[0] = "z"
	if src["owner"].(map[string]any)["name"] != "ops" || src["tags"].([]any)[0] != "a" {
		t.Fatal("clone shares memory with source")
	}
}
