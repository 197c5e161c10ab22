package wizard

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionType names a wizard transition.
type ActionType string

const (
	ActionNext  ActionType = "NEXT"
	ActionBack  ActionType = "BACK"
	ActionReset ActionType = "RESET"
	ActionGoTo  ActionType = "GO_TO_STEP"
)

// Action is a wizard transition. Step is only read by ActionGoTo.
type Action struct {
	Type ActionType
	Step int
}

// GoTo builds a GO_TO_STEP action.
func GoTo(step int) Action {
	return Action{Type: ActionGoTo, Step: step}
}

// Reduce computes the active step after a.
//
// NEXT is not clamped to the last step and GO_TO_STEP is not bounds-checked:
// workflows stop issuing them at the end. BACK never goes below zero.
// Unknown action types are a programmer error and panic.
func Reduce(active int, a Action) int {
	switch a.Type {
	case ActionNext:
		return active + 1
	case ActionBack:
		if active <= 0 {
			return 0
		}
		return active - 1
	case ActionReset:
		return 0
	case ActionGoTo:
		return a.Step
	default:
		panic(fmt.Sprintf("wizard: unknown action %q", a.Type))
	}
}

// ParseAction validates an action coming from outside the process (HTTP, CLI).
// Accepted names are case-insensitive: next, back, reset, goto / go_to_step.
func ParseAction(name string, step string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "next":
		return Action{Type: ActionNext}, nil
	case "back":
		return Action{Type: ActionBack}, nil
	case "reset", "start_over", "start-over":
		return Action{Type: ActionReset}, nil
	case "goto", "go_to_step", "go-to-step":
		n, err := strconv.Atoi(strings.TrimSpace(step))
		if err != nil {
			return Action{}, fmt.Errorf("invalid step %q: %w", step, err)
		}
		return GoTo(n), nil
	}
	return Action{}, fmt.Errorf("unknown wizard action %q", name)
}
