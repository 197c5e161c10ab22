package dsl

import "github.com/aretw0/layouts/pkg/schema"

// LayoutBuilder provides a fluent API for configuring a layout.
type LayoutBuilder struct {
	spec    schema.LayoutSpec
	builder *Builder
}

// DependsOn adds layouts whose data must exist before this one hydrates.
func (l *LayoutBuilder) DependsOn(keys ...string) *LayoutBuilder {
	l.spec.Deps = append(l.spec.Deps, keys...)
	return l
}

// Hydrate sets the producer that fetches the layout data.
func (l *LayoutBuilder) Hydrate(kind string, args map[string]any) *LayoutBuilder {
	l.spec.Hydrator = &schema.ProducerSpec{Kind: kind, Args: args}
	return l
}

// Static hydrates the layout with a fixed value.
func (l *LayoutBuilder) Static(value any) *LayoutBuilder {
	return l.Hydrate("static", map[string]any{"value": value})
}

// GET hydrates the layout from a REST endpoint. url is a template over .Deps.
func (l *LayoutBuilder) GET(url string) *LayoutBuilder {
	return l.Hydrate("http", map[string]any{"url": url})
}

// Transform maps the hydrator response.
func (l *LayoutBuilder) Transform(kind string, args map[string]any) *LayoutBuilder {
	l.spec.Transform = &schema.ProducerSpec{Kind: kind, Args: args}
	return l
}

// OnError maps hydrator failures.
func (l *LayoutBuilder) OnError(kind string, args map[string]any) *LayoutBuilder {
	l.spec.Error = &schema.ProducerSpec{Kind: kind, Args: args}
	return l
}

// Cached skips hydration on mount while the layout holds data.
func (l *LayoutBuilder) Cached() *LayoutBuilder {
	l.spec.Cache = true
	return l
}

// Default sets the empty value of the layout.
func (l *LayoutBuilder) Default(v any) *LayoutBuilder {
	l.spec.Default = v
	return l
}

// Layout returns to the workflow builder to declare another layout.
func (l *LayoutBuilder) Layout(key string) *LayoutBuilder {
	return l.builder.Layout(key)
}

// Step returns to the workflow builder to declare a step.
func (l *LayoutBuilder) Step(id string) *StepBuilder {
	return l.builder.Step(id)
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	builder *Builder
	index   int
}

func (s *StepBuilder) spec() *schema.StepSpec {
	return &s.builder.doc.Steps[s.index]
}

// Title sets the label of the step.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.spec().Title = title
	return s
}

// Describe sets the (markdown) description of the step.
func (s *StepBuilder) Describe(description string) *StepBuilder {
	s.spec().Description = description
	return s
}

// Hydrates lists the layouts mounted when the step becomes active.
func (s *StepBuilder) Hydrates(keys ...string) *StepBuilder {
	s.spec().Hydrates = append(s.spec().Hydrates, keys...)
	return s
}

// Step declares the next step.
func (s *StepBuilder) Step(id string) *StepBuilder {
	return s.builder.Step(id)
}

// Layout returns to the workflow builder to declare a layout.
func (s *StepBuilder) Layout(key string) *LayoutBuilder {
	return s.builder.Layout(key)
}

// Done returns the workflow builder.
func (l *LayoutBuilder) Done() *Builder {
	return l.builder
}

// Done returns the workflow builder.
func (s *StepBuilder) Done() *Builder {
	return s.builder
}
