package dsl

import (
	"fmt"

	"github.com/aretw0/layouts/pkg/registry"
	"github.com/aretw0/layouts/pkg/schema"
)

// Builder manages the workflow construction.
type Builder struct {
	doc     schema.Document
	layouts map[string]*LayoutBuilder
	order   []string
}

// New creates a new workflow builder.
func New(name string) *Builder {
	return &Builder{
		doc:     schema.Document{Name: name},
		layouts: make(map[string]*LayoutBuilder),
	}
}

// Title sets the human readable title of the workflow.
func (b *Builder) Title(title string) *Builder {
	b.doc.Title = title
	return b
}

// Describe sets the description of the workflow.
func (b *Builder) Describe(description string) *Builder {
	b.doc.Description = description
	return b
}

// Layout declares a layout.
// If the layout already exists, it returns the existing builder.
func (b *Builder) Layout(key string) *LayoutBuilder {
	if lb, ok := b.layouts[key]; ok {
		return lb
	}
	lb := &LayoutBuilder{builder: b}
	b.layouts[key] = lb
	b.order = append(b.order, key)
	return lb
}

// Step appends a wizard step.
func (b *Builder) Step(id string) *StepBuilder {
	b.doc.Steps = append(b.doc.Steps, schema.StepSpec{ID: id})
	return &StepBuilder{builder: b, index: len(b.doc.Steps) - 1}
}

// Document returns the workflow document built so far.
func (b *Builder) Document() *schema.Document {
	doc := b.doc
	doc.Steps = append([]schema.StepSpec(nil), b.doc.Steps...)
	doc.Layouts = make(map[string]schema.LayoutSpec, len(b.layouts))
	for _, key := range b.order {
		doc.Layouts[key] = b.layouts[key].spec
	}
	return &doc
}

// Build validates and compiles the workflow against reg.
// A nil registry uses registry.NewDefault().
func (b *Builder) Build(reg *registry.Registry) (*schema.Workflow, error) {
	if reg == nil {
		reg = registry.NewDefault()
	}
	doc := b.Document()
	wf, err := schema.Compile(doc, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to compile workflow %q: %w", doc.Name, err)
	}
	return wf, nil
}
