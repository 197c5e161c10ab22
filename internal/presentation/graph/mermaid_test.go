package graph_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/layouts/internal/presentation/graph"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, ...any) (any, error) { return nil, nil }

func TestGenerateMermaid(t *testing.T) {
	defs := layout.Definitions{
		"projects":      {Hydrator: noop, Cache: true},
		"project":       {},
		"instance-list": {Deps: []string{"project"}, Hydrator: noop},
	}
	steps := []wizard.Step{
		{ID: "project", Title: `Pick a "project"`, Hydrates: []string{"projects"}},
		{ID: "instance", Hydrates: []string{"instance-list"}},
	}

	tests := []struct {
		name     string
		overlay  *graph.GraphOverlay
		contains []string
		absent   []string
	}{
		{
			name: "Shapes and Edges",
			contains: []string{
				`layout_projects[["projects <br/> cached"]]`,
				`layout_project[/"project"/]`,
				`layout_instance_list[["instance-list"]]`,
				"layout_project --> layout_instance_list",
				`step_project(["1. Pick a 'project'"])`,
				`step_instance(["2. instance"])`,
				"step_project ==> step_instance",
				"step_instance -. mounts .-> layout_instance_list",
			},
			absent: []string{"classDef"},
		},
		{
			name: "Overlay",
			overlay: &graph.GraphOverlay{
				ActiveStep: "instance",
				Filled:     []string{"project", "project"},
				Errored:    []string{"instance-list"},
			},
			contains: []string{
				"class layout_project filled;",
				"class layout_instance_list errored;",
				"class step_instance current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(defs, steps, tt.overlay)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, got, unwanted)
			}
			if tt.overlay != nil {
				assert.Equal(t, 1, strings.Count(got, "class layout_project filled;"), "overlay classes are deduplicated")
			}
		})
	}
}

func TestOverlayFrom(t *testing.T) {
	ctx := context.Background()
	m := layout.MustNew(layout.Definitions{
		"project": {},
		"instances": {
			Deps:     []string{"project"},
			Hydrator: noop,
		},
		"broken": {Hydrator: func(context.Context, ...any) (any, error) { return nil, errors.New("boom") }},
	})
	c, err := wizard.New(m, []wizard.Step{{ID: "one"}, {ID: "two"}})
	require.NoError(t, err)

	m.Query("project").Assign(map[string]any{"id": "infra"})
	require.Error(t, m.Hydrate(ctx, "broken").Wait(ctx))
	c.Next(ctx)

	o := graph.OverlayFrom(m, c)
	assert.Equal(t, "two", o.ActiveStep)
	assert.Equal(t, []string{"project"}, o.Filled)
	assert.Equal(t, []string{"broken"}, o.Errored)
	assert.Equal(t, []string{"instances"}, o.Loading, "never mounted")
}
