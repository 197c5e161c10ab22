package layout

import "fmt"

// NodeState is the runtime state of one layout.
type NodeState struct {
	Data      any
	IsLoading bool
	Err       error
}

// Patch mutates selected top-level fields of a NodeState.
type Patch func(*NodeState)

// SetData replaces the layout data. A nil value is ignored, data is never cleared to nil.
func SetData(v any) Patch {
	return func(n *NodeState) {
		if v != nil {
			n.Data = v
		}
	}
}

// SetLoading sets the loading flag.
func SetLoading(loading bool) Patch {
	return func(n *NodeState) {
		n.IsLoading = loading
	}
}

// SetError sets the layout error.
func SetError(err error) Patch {
	return func(n *NodeState) {
		n.Err = err
	}
}

// ClearError removes the layout error.
func ClearError() Patch {
	return SetError(nil)
}

type action interface {
	actionName() string
}

type assignAction struct {
	layout string
	value  any
}

type updateAction struct {
	layout  string
	patches []Patch
}

type hydrateStartAction struct {
	layout string
}

type hydrateSuccessAction struct {
	layout    string
	result    any
	overwrite bool
}

type hydrateFailureAction struct {
	layout string
	err    error
}

type resetAction struct{}

func (assignAction) actionName() string         { return "assign" }
func (updateAction) actionName() string         { return "update" }
func (hydrateStartAction) actionName() string   { return "hydrate_start" }
func (hydrateSuccessAction) actionName() string { return "hydrate_success" }
func (hydrateFailureAction) actionName() string { return "hydrate_failure" }
func (resetAction) actionName() string          { return "reset" }

// store owns the node states of one session. It is not safe for concurrent use;
// the Manager serializes every call to reduce.
type store struct {
	defs  Definitions
	nodes map[string]NodeState
}

func newStore(defs Definitions) *store {
	s := &store{
		defs:  defs,
		nodes: make(map[string]NodeState, len(defs)),
	}
	for key, def := range defs {
		s.nodes[key] = NodeState{
			Data:      def.empty(),
			IsLoading: def.Hydrator != nil,
		}
	}
	return s
}

// reduce applies a to the store and returns the keys it touched.
// Unknown actions and unknown keys are programmer errors and panic.
func (s *store) reduce(a action) []string {
	switch a := a.(type) {
	case assignAction:
		node := s.node(a.layout)
		node.Data = a.value
		if node.Data == nil {
			node.Data = s.defs[a.layout].empty()
		}
		node.IsLoading = false
		s.nodes[a.layout] = node
		return []string{a.layout}

	case updateAction:
		node := s.node(a.layout)
		for _, patch := range a.patches {
			patch(&node)
		}
		s.nodes[a.layout] = node
		return []string{a.layout}

	case hydrateStartAction:
		node := s.node(a.layout)
		node.IsLoading = true
		node.Err = nil
		s.nodes[a.layout] = node
		return []string{a.layout}

	case hydrateSuccessAction:
		node := s.node(a.layout)
		node.Data = Merge(node.Data, a.result, a.overwrite)
		node.Err = nil
		node.IsLoading = false
		s.nodes[a.layout] = node
		return []string{a.layout}

	case hydrateFailureAction:
		node := s.node(a.layout)
		node.Err = a.err
		node.IsLoading = false
		s.nodes[a.layout] = node
		return []string{a.layout}

	case resetAction:
		keys := s.defs.Keys()
		for _, key := range keys {
			s.nodes[key] = NodeState{
				Data:      s.defs[key].empty(),
				IsLoading: true,
			}
		}
		return keys

	default:
		panic(fmt.Sprintf("layout: unknown action %T", a))
	}
}

func (s *store) node(key string) NodeState {
	node, ok := s.nodes[key]
	if !ok {
		panic(fmt.Sprintf("layout: unknown layout %q", key))
	}
	return node
}
