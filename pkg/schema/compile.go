package schema

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/registry"
	"github.com/aretw0/layouts/pkg/wizard"
)

// Workflow is a compiled document, ready to open sessions.
type Workflow struct {
	Name        string
	Title       string
	Description string
	Definitions layout.Definitions
	Steps       []wizard.Step
	Document    *Document
}

// Compile validates doc and resolves every producer through reg.
func Compile(doc *Document, reg *registry.Registry) (*Workflow, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	var c collector
	defs := make(layout.Definitions, len(doc.Layouts))
	for key, spec := range doc.Layouts {
		def := layout.Definition{
			Deps:  append([]string(nil), spec.Deps...),
			Cache: spec.Cache,
		}
		if spec.Hydrator != nil {
			h, err := reg.Hydrator(spec.Hydrator.Kind, spec.Hydrator.Args)
			if err != nil {
				c.add("layouts."+key+".hydrator", err.Error(), nil)
			}
			def.Hydrator = h
		}
		if spec.Transform != nil {
			fn, err := reg.Transform(spec.Transform.Kind, spec.Transform.Args)
			if err != nil {
				c.add("layouts."+key+".transform", err.Error(), nil)
			}
			def.TransformResponse = fn
		}
		if spec.Error != nil {
			fn, err := reg.ErrorTransform(spec.Error.Kind, spec.Error.Args)
			if err != nil {
				c.add("layouts."+key+".error", err.Error(), nil)
			}
			def.TransformError = fn
		}
		if spec.Default != nil {
			value := spec.Default
			def.Default = func() any { return layout.Clone(value) }
		}
		defs[key] = def
	}
	if err := c.err(); err != nil {
		sortErrors(err.(*AggregateError))
		return nil, err
	}

	steps := make([]wizard.Step, len(doc.Steps))
	for i, s := range doc.Steps {
		steps[i] = wizard.Step{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Hydrates:    append([]string(nil), s.Hydrates...),
		}
	}

	return &Workflow{
		Name:        doc.Name,
		Title:       doc.Title,
		Description: doc.Description,
		Definitions: defs,
		Steps:       steps,
		Document:    doc,
	}, nil
}

func sortErrors(aggr *AggregateError) {
	sort.SliceStable(aggr.Errors, func(i, j int) bool {
		return aggr.Errors[i].Error() < aggr.Errors[j].Error()
	})
}

// OpenOptions configures a session opened from a Workflow.
type OpenOptions struct {
	SessionID  string
	Logger     *slog.Logger
	Hooks      domain.LifecycleHooks
	QueryState wizard.QueryState
}

// Open builds a fresh manager and controller. Nothing is mounted until the
// controller is started.
func (w *Workflow) Open(o OpenOptions) (*layout.Manager, *wizard.Controller, error) {
	m, err := layout.New(w.Definitions,
		layout.WithSessionID(o.SessionID),
		layout.WithLogger(o.Logger),
		layout.WithLifecycleHooks(o.Hooks),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", w.Name, err)
	}

	opts := []wizard.Option{
		wizard.WithLogger(o.Logger),
		wizard.WithLifecycleHooks(o.Hooks),
	}
	if o.QueryState != nil {
		opts = append(opts, wizard.WithQueryState(o.QueryState))
	}
	c, err := wizard.New(m, w.Steps, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", w.Name, err)
	}
	return m, c, nil
}
