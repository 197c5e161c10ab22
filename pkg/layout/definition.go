package layout

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownDependency is returned by New when a definition depends on a key
// that is not part of the same Definitions map.
var ErrUnknownDependency = errors.New("unknown dependency")

// Hydrator produces the raw data of a layout from the data of its dependencies,
// passed in declaration order.
type Hydrator func(ctx context.Context, deps ...any) (any, error)

// Definition is the static, author-supplied description of a layout.
type Definition struct {
	// Deps lists the layouts whose data must be non-empty before Hydrator runs.
	Deps []string

	// Hydrator derives the layout's data. Nil means the layout only holds user input.
	Hydrator Hydrator

	// TransformResponse maps the raw hydrator result. Defaults to identity.
	TransformResponse func(any) any

	// TransformError maps a hydrator failure. Defaults to identity.
	TransformError func(error) error

	// Cache skips hydration on mount while the layout already holds data.
	Cache bool

	// Default returns the empty value of the layout. Defaults to an empty map.
	Default func() any
}

// Definitions is the node-definition map of a screen, keyed by layout name.
type Definitions map[string]Definition

// Validate checks that every dependency refers to a declared layout.
func (d Definitions) Validate() error {
	var errs []error
	for _, key := range d.Keys() {
		for _, dep := range d[key].Deps {
			if _, ok := d[dep]; !ok {
				errs = append(errs, fmt.Errorf("layout %q: %w %q", key, ErrUnknownDependency, dep))
			}
		}
	}
	return errors.Join(errs...)
}

// Keys returns the declared layout keys in lexical order.
func (d Definitions) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (def Definition) empty() any {
	if def.Default != nil {
		if v := def.Default(); v != nil {
			return v
		}
	}
	return map[string]any{}
}

func (def Definition) transformResponse(raw any) any {
	if def.TransformResponse == nil {
		return raw
	}
	return def.TransformResponse(raw)
}

func (def Definition) transformError(err error) error {
	if def.TransformError == nil {
		return err
	}
	if out := def.TransformError(err); out != nil {
		return out
	}
	return err
}
