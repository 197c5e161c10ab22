package schema

import (
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a workflow.
type Document struct {
	Name        string                `yaml:"name" json:"name" validate:"required"`
	Title       string                `yaml:"title,omitempty" json:"title,omitempty"`
	Description string                `yaml:"description,omitempty" json:"description,omitempty"`
	Layouts     map[string]LayoutSpec `yaml:"layouts" json:"layouts" validate:"required,min=1,dive,keys,required,endkeys"`
	Steps       []StepSpec            `yaml:"steps" json:"steps" validate:"required,min=1,unique=ID,dive"`
}

// LayoutSpec declares one layout.
type LayoutSpec struct {
	Deps      []string      `yaml:"deps,omitempty" json:"deps,omitempty" validate:"dive,required"`
	Hydrator  *ProducerSpec `yaml:"hydrator,omitempty" json:"hydrator,omitempty"`
	Transform *ProducerSpec `yaml:"transform,omitempty" json:"transform,omitempty"`
	Error     *ProducerSpec `yaml:"error,omitempty" json:"error,omitempty"`
	Cache     bool          `yaml:"cache,omitempty" json:"cache,omitempty"`
	Default   any           `yaml:"default,omitempty" json:"default,omitempty"`
}

// ProducerSpec names a registered producer kind and its arguments.
type ProducerSpec struct {
	Kind string         `yaml:"kind" json:"kind" validate:"required"`
	Args map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// UnmarshalYAML accepts either a mapping or a bare kind.
func (p *ProducerSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Kind = node.Value
		p.Args = nil
		return nil
	}
	type plain ProducerSpec
	return node.Decode((*plain)(p))
}

// StepSpec declares one wizard step.
type StepSpec struct {
	ID          string   `yaml:"id" json:"id" validate:"required"`
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Hydrates    []string `yaml:"hydrates,omitempty" json:"hydrates,omitempty" validate:"dive,required"`
}
