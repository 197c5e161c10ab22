package layout

import (
	"context"
	"encoding/json"
	"fmt"
)

// Query is the consumer view of one layout.
type Query struct {
	m   *Manager
	key string
}

// Query returns the consumer view of key. Unknown keys panic.
func (m *Manager) Query(key string) Query {
	m.Definition(key)
	return Query{m: m, key: key}
}

// Key returns the layout key.
func (q Query) Key() string {
	return q.key
}

// Value returns the current data.
func (q Query) Value() any {
	return q.m.Node(q.key).Data
}

// DisplayValue returns a read-only rendering of the data: values implementing
// json.Marshaler are marshaled and decoded back into plain data, anything else
// (or a value that fails to marshal) is returned unchanged.
func (q Query) DisplayValue() any {
	v := q.Value()
	marshaler, ok := v.(json.Marshaler)
	if !ok {
		return v
	}
	raw, err := marshaler.MarshalJSON()
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// IsLoading reports whether a hydration is in flight.
func (q Query) IsLoading() bool {
	return q.m.Node(q.key).IsLoading
}

// Err returns the layout error, if any.
func (q Query) Err() error {
	return q.m.Node(q.key).Err
}

// Get reads a nested value of the data.
func (q Query) Get(path string) (any, bool) {
	return GetPath(q.Value(), path)
}

// Assign replaces the data.
func (q Query) Assign(v any) {
	q.m.Assign(q.key, v)
}

// UpdateData stores v at path inside the data and commits the whole new value.
// The read and the write happen in the same dispatch.
func (q Query) UpdateData(path string, v any) error {
	var err error
	q.m.Update(q.key, func(n *NodeState) {
		var next any
		next, err = SetPath(n.Data, path, v)
		if err == nil {
			n.Data = next
		}
	})
	if err != nil {
		return fmt.Errorf("update %q: %w", q.key, err)
	}
	return nil
}

// Hydrate hydrates the layout.
func (q Query) Hydrate(ctx context.Context, opts ...HydrateOption) *Pending {
	return q.m.Hydrate(ctx, q.key, opts...)
}
