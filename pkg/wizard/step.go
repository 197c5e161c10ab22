package wizard

import (
	"context"

	"github.com/aretw0/layouts/pkg/layout"
)

// StepContext is what a step component receives from the wizard.
type StepContext struct {
	c     *Controller
	step  Step
	index int
}

// Step returns the step definition.
func (s StepContext) Step() Step {
	return s.step
}

// Index returns the position of the step.
func (s StepContext) Index() int {
	return s.index
}

// Layouts returns the layout manager shared by every step.
func (s StepContext) Layouts() *layout.Manager {
	return s.c.layouts
}

// OnSubmit runs the step's submit override, or advances the wizard.
func (s StepContext) OnSubmit(ctx context.Context) (layout.Batch, error) {
	if _, _, submit := s.c.status(s.step.ID); submit != nil {
		return nil, submit(ctx, s)
	}
	return s.c.Next(ctx), nil
}

// OnBack goes back one step and clears the warnings.
func (s StepContext) OnBack(ctx context.Context) {
	s.c.Back(ctx)
	s.c.ClearWarnings()
}

// SetIsLoading declares whether the step is busy.
func (s StepContext) SetIsLoading(loading bool) {
	s.c.setLoading(s.step.ID, loading)
}

// SetHasError declares whether the step is in an error state.
func (s StepContext) SetHasError(hasError bool) {
	s.c.setError(s.step.ID, hasError)
}

// IsLoading reports what the step last declared with SetIsLoading.
func (s StepContext) IsLoading() bool {
	loading, _, _ := s.c.status(s.step.ID)
	return loading
}

// HasError reports what the step last declared with SetHasError.
func (s StepContext) HasError() bool {
	_, hasError, _ := s.c.status(s.step.ID)
	return hasError
}

// DisplayWarnings shows warnings for the whole wizard.
func (s StepContext) DisplayWarnings(warnings ...string) {
	s.c.DisplayWarnings(warnings...)
}

// Indicator is the rendering state of one step in the progress bar.
type Indicator struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Index     int    `json:"index"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
	Loading   bool   `json:"loading"`
	Error     bool   `json:"error"`
}

// Indicators returns the progress state of every step.
func (c *Controller) Indicators() []Indicator {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Indicator, len(c.steps))
	for i, s := range c.steps {
		m := c.meta[s.ID]
		out[i] = Indicator{
			ID:        s.ID,
			Title:     s.Title,
			Index:     i,
			Active:    i == c.active,
			Completed: i < c.active,
			Loading:   m.isLoading,
			Error:     m.hasError,
		}
	}
	return out
}

// View is a serializable summary of the wizard.
type View struct {
	Active       int         `json:"active"`
	Total        int         `json:"total"`
	Step         *Step       `json:"step,omitempty"`
	IsLast       bool        `json:"is_last"`
	CanStartOver bool        `json:"can_start_over"`
	Indicators   []Indicator `json:"indicators"`
	Warnings     []string    `json:"warnings,omitempty"`
}

// View summarizes the wizard for renderers.
func (c *Controller) View() View {
	active := c.Active()
	v := View{
		Active:       active,
		Total:        len(c.steps),
		IsLast:       active == len(c.steps)-1,
		CanStartOver: c.CanStartOver(),
		Indicators:   c.Indicators(),
		Warnings:     c.Warnings(),
	}
	if s, ok := c.Step(active); ok {
		v.Step = &s
	}
	return v
}
