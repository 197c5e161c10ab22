package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/wizard"
)

// GraphOverlay contains live session data to visualize on the graph.
type GraphOverlay struct {
	ActiveStep string
	Filled     []string
	Loading    []string
	Errored    []string
}

// OverlayFrom captures the state of a live session.
func OverlayFrom(m *layout.Manager, c *wizard.Controller) *GraphOverlay {
	o := &GraphOverlay{}
	if c != nil {
		if s, ok := c.Step(c.Active()); ok {
			o.ActiveStep = s.ID
		}
	}
	if m == nil {
		return o
	}
	nodes := m.Snapshot()
	for _, key := range m.Keys() {
		n := nodes[key]
		switch {
		case n.Err != nil:
			o.Errored = append(o.Errored, key)
		case n.IsLoading:
			o.Loading = append(o.Loading, key)
		case !layout.IsEmpty(n.Data):
			o.Filled = append(o.Filled, key)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the layout dependency graph
// and the wizard steps that mount it. Shapes:
// - Hydrated layout: [[Subroutine]]
// - User input (no hydrator): [/Parallelogram/]
// - Step: (["Stadium"])
// Dependencies are solid arrows, step mounts dotted, step order thick.
func GenerateMermaid(defs layout.Definitions, steps []wizard.Step, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	keys := defs.Keys()
	for _, key := range keys {
		def := defs[key]
		id := layoutID(key)

		opener, closer := "[/", "/]"
		if def.Hydrator != nil {
			opener, closer = "[[", "]]"
		}
		label := key
		if def.Cache {
			label += " <br/> cached"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)
	}
	for _, key := range keys {
		deps := append([]string(nil), defs[key].Deps...)
		sort.Strings(deps)
		for _, dep := range deps {
			fmt.Fprintf(&sb, "    %s --> %s\n", layoutID(dep), layoutID(key))
		}
	}

	for i, s := range steps {
		title := s.Title
		if title == "" {
			title = s.ID
		}
		title = strings.ReplaceAll(title, "\"", "'")
		fmt.Fprintf(&sb, "    %s([\"%d. %s\"])\n", stepID(s.ID), i+1, title)
		if i > 0 {
			fmt.Fprintf(&sb, "    %s ==> %s\n", stepID(steps[i-1].ID), stepID(s.ID))
		}
		for _, l := range s.Hydrates {
			fmt.Fprintf(&sb, "    %s -. mounts .-> %s\n", stepID(s.ID), layoutID(l))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef filled fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef loading fill:#fff3e0,stroke:#ef6c00,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef errored fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		writeClass(&sb, overlay.Filled, "filled")
		writeClass(&sb, overlay.Loading, "loading")
		writeClass(&sb, overlay.Errored, "errored")
		if overlay.ActiveStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", stepID(overlay.ActiveStep))
		}
	}

	return sb.String()
}

func writeClass(sb *strings.Builder, keys []string, class string) {
	seen := make(map[string]bool)
	for _, k := range keys {
		id := layoutID(k)
		if k == "" || seen[id] {
			continue
		}
		seen[id] = true
		fmt.Fprintf(sb, "    class %s %s;\n", id, class)
	}
}

func layoutID(key string) string {
	return "layout_" + sanitizeMermaidID(key)
}

func stepID(id string) string {
	return "step_" + sanitizeMermaidID(id)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
