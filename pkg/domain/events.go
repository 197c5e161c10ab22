package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventHydrateStart  EventType = "hydrate_start"
	EventHydrateSettle EventType = "hydrate_settle"
	EventStepChange    EventType = "step_change"
	EventSessionStart  EventType = "session_start"
	EventSessionEnd    EventType = "session_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// HydrationEvent describes one hydration of a layout.
// Duration and Err are only set on settle events.
type HydrationEvent struct {
	EventBase
	Layout   string        `json:"layout"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// Outcome classifies a settled hydration for metrics and logs.
func (e *HydrationEvent) Outcome() string {
	switch {
	case e.Err == nil:
		return "success"
	case IsMissingDependency(e.Err):
		return "missing_dependency"
	default:
		return "error"
	}
}

// StepEvent represents a wizard transition.
type StepEvent struct {
	EventBase
	Action string `json:"action"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	StepID string `json:"step_id,omitempty"`
}

// SessionEvent marks a session entering or leaving memory.
type SessionEvent struct {
	EventBase
	Workflow string `json:"workflow"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnHydrateStart  func(context.Context, *HydrationEvent)
	OnHydrateSettle func(context.Context, *HydrationEvent)
	OnStepChange    func(context.Context, *StepEvent)
	OnSessionStart  func(context.Context, *SessionEvent)
	OnSessionEnd    func(context.Context, *SessionEvent)
}
