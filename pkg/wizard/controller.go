package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
)

// ErrUnknownStep is returned when a step ID is not part of the wizard.
var ErrUnknownStep = errors.New("unknown step")

// Step is one screen of the wizard.
type Step struct {
	// ID is the stable key of the step's metadata.
	ID string `json:"id"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Hydrates lists the layouts mounted when the step becomes active.
	Hydrates []string `json:"hydrates,omitempty"`
}

// QueryState is externally tracked state (e.g. URL query parameters) cleared on reset.
type QueryState interface {
	Clear()
}

// QueryStateFunc adapts a function to QueryState.
type QueryStateFunc func()

// Clear calls f.
func (f QueryStateFunc) Clear() { f() }

// SubmitFunc replaces the default NEXT behavior of a step's submit.
type SubmitFunc func(ctx context.Context, sc StepContext) error

type stepMeta struct {
	isLoading bool
	hasError  bool
	submit    SubmitFunc
}

// Controller sequences a linear wizard over a shared layout.Manager.
// It owns the active step, the per-step metadata and the warnings; it holds,
// but does not own, the manager.
type Controller struct {
	layouts *layout.Manager
	steps   []Step
	index   map[string]int

	mu       sync.Mutex
	active   int
	meta     map[string]*stepMeta
	warnings []string

	query  QueryState
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithQueryState registers external state cleared by Reset.
func WithQueryState(q QueryState) Option {
	return func(c *Controller) {
		c.query = q
	}
}

// New creates a controller positioned on step 0.
func New(layouts *layout.Manager, steps []Step, opts ...Option) (*Controller, error) {
	if layouts == nil {
		return nil, errors.New("wizard requires a layout manager")
	}
	if len(steps) == 0 {
		return nil, errors.New("wizard requires at least one step")
	}

	c := &Controller{
		layouts: layouts,
		steps:   make([]Step, len(steps)),
		index:   make(map[string]int, len(steps)),
		meta:    make(map[string]*stepMeta, len(steps)),
		logger:  logging.NewNop(),
	}

	var errs []error
	for i, s := range steps {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("step %d: missing id", i))
			continue
		}
		if _, dup := c.index[s.ID]; dup {
			errs = append(errs, fmt.Errorf("step %q: duplicate id", s.ID))
			continue
		}
		for _, key := range s.Hydrates {
			if !layouts.Has(key) {
				errs = append(errs, fmt.Errorf("step %q: unknown layout %q", s.ID, key))
			}
		}
		s.Hydrates = append([]string(nil), s.Hydrates...)
		c.steps[i] = s
		c.index[s.ID] = i
		c.meta[s.ID] = &stepMeta{}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid wizard steps: %w", err)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Layouts returns the shared layout manager.
func (c *Controller) Layouts() *layout.Manager {
	return c.layouts
}

// Steps returns a copy of the declared steps.
func (c *Controller) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// Len returns the number of steps.
func (c *Controller) Len() int {
	return len(c.steps)
}

// Active returns the active step index.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Step returns the step at index i, if it exists.
func (c *Controller) Step(i int) (Step, bool) {
	if i < 0 || i >= len(c.steps) {
		return Step{}, false
	}
	return c.steps[i], true
}

// Start mounts the layouts of the active step.
func (c *Controller) Start(ctx context.Context) layout.Batch {
	return c.mount(ctx, c.Active())
}

// Dispatch applies a and mounts the layouts of the step it lands on when the
// wizard moved forward, jumped, or was reset. Going back keeps the data the
// previous visit hydrated.
func (c *Controller) Dispatch(ctx context.Context, a Action) layout.Batch {
	c.mu.Lock()
	from := c.active
	to := Reduce(from, a)
	c.active = to
	if a.Type == ActionReset {
		c.warnings = nil
		for _, m := range c.meta {
			m.isLoading = false
			m.hasError = false
		}
	}
	c.mu.Unlock()

	if a.Type == ActionReset {
		c.layouts.Reset()
		if c.query != nil {
			c.query.Clear()
		}
	}

	if to >= len(c.steps) {
		c.logger.Debug("wizard advanced past its last step", "active", to, "steps", len(c.steps))
	}
	c.logger.Debug("wizard transition", "action", string(a.Type), "from", from, "to", to)
	c.emitStepChange(ctx, a, from, to)

	if a.Type == ActionBack {
		return nil
	}
	return c.mount(ctx, to)
}

// Next advances to the next step.
func (c *Controller) Next(ctx context.Context) layout.Batch {
	return c.Dispatch(ctx, Action{Type: ActionNext})
}

// Back returns to the previous step, never going below the first one.
func (c *Controller) Back(ctx context.Context) {
	c.Dispatch(ctx, Action{Type: ActionBack})
}

// Reset starts over: step 0, every layout reset, external query state and
// warnings cleared, step 0 mounted again.
func (c *Controller) Reset(ctx context.Context) layout.Batch {
	return c.Dispatch(ctx, Action{Type: ActionReset})
}

// GoToStep jumps to step n without bounds checks.
func (c *Controller) GoToStep(ctx context.Context, n int) layout.Batch {
	return c.Dispatch(ctx, GoTo(n))
}

// Restore repositions the wizard from a persisted draft without hydrating.
func (c *Controller) Restore(active int, warnings []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
	c.warnings = append([]string(nil), warnings...)
}

// Current returns the context of the active step, if the active index names a step.
func (c *Controller) Current() (StepContext, bool) {
	active := c.Active()
	s, ok := c.Step(active)
	if !ok {
		return StepContext{}, false
	}
	return StepContext{c: c, step: s, index: active}, true
}

// Context returns the context of the step with the given ID.
func (c *Controller) Context(id string) (StepContext, error) {
	i, ok := c.index[id]
	if !ok {
		return StepContext{}, fmt.Errorf("%w %q", ErrUnknownStep, id)
	}
	return StepContext{c: c, step: c.steps[i], index: i}, nil
}

// OverrideSubmit replaces NEXT as the submit action of step id. A nil fn restores NEXT.
func (c *Controller) OverrideSubmit(id string, fn SubmitFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.meta[id]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownStep, id)
	}
	m.submit = fn
	return nil
}

// DisplayWarnings replaces the wizard-wide warnings.
func (c *Controller) DisplayWarnings(warnings ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append([]string(nil), warnings...)
}

// Dismiss removes the first warning equal to w.
func (c *Controller) Dismiss(w string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.warnings {
		if existing == w {
			c.warnings = append(c.warnings[:i:i], c.warnings[i+1:]...)
			return true
		}
	}
	return false
}

// ClearWarnings removes every warning.
func (c *Controller) ClearWarnings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = nil
}

// Warnings returns the current warnings.
func (c *Controller) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

// CanStartOver reports whether the "start over" action should be offered:
// on the last step once it is not loading, or on any step flagged with an error.
func (c *Controller) CanStartOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.Step(c.active)
	if !ok {
		return false
	}
	m := c.meta[s.ID]
	if m.hasError {
		return true
	}
	return c.active == len(c.steps)-1 && !m.isLoading
}

func (c *Controller) mount(ctx context.Context, i int) layout.Batch {
	s, ok := c.Step(i)
	if !ok {
		return nil
	}
	return c.layouts.MountAll(ctx, s.Hydrates...)
}

func (c *Controller) setLoading(id string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[id].isLoading = v
}

func (c *Controller) setError(id string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[id].hasError = v
}

func (c *Controller) status(id string) (loading, hasError bool, submit SubmitFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.meta[id]
	return m.isLoading, m.hasError, m.submit
}

func (c *Controller) emitStepChange(ctx context.Context, a Action, from, to int) {
	if c.hooks.OnStepChange == nil {
		return
	}
	e := &domain.StepEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventStepChange,
			SessionID: c.layouts.SessionID(),
		},
		Action: string(a.Type),
		From:   from,
		To:     to,
	}
	if s, ok := c.Step(to); ok {
		e.StepID = s.ID
	}
	c.hooks.OnStepChange(ctx, e)
}
