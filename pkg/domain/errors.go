package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingDependency is matched by the error a layout receives when one of its
// dependencies has no data at hydration time.
var ErrMissingDependency = errors.New("missing dependency")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrWorkflowNotFound is returned when a workflow name is not registered in a catalog.
var ErrWorkflowNotFound = errors.New("workflow not found")

// Error is the structured error information attached to a layout.
// Producers are free to return any error; Error is what the engine itself
// synthesizes and what adapters render.
type Error struct {
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Cause      error  `json:"-"`
}

// CodeMissingDependency marks errors synthesized by the dependency gate, so the
// condition survives serialization.
const CodeMissingDependency = "missing_dependency"

func (e *Error) Error() string {
	if e.StatusText == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.StatusText, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches ErrMissingDependency by code once the cause is gone.
func (e *Error) Is(target error) bool {
	return target == ErrMissingDependency && e.Code == CodeMissingDependency
}

// NewError builds an Error with the standard status text for status.
func NewError(status int, message string, cause error) *Error {
	return &Error{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
		Cause:      cause,
	}
}

// MissingDependency reports that dep had no data when key was hydrated.
func MissingDependency(dep, key string) *Error {
	e := NewError(http.StatusNotFound,
		fmt.Sprintf("dependency %q has no data, cannot hydrate %q", dep, key),
		ErrMissingDependency,
	)
	e.Code = CodeMissingDependency
	return e
}

// AsError lifts err into an *Error. Errors that already carry one are returned as is,
// anything else becomes a 500.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(http.StatusInternalServerError, err.Error(), err)
}
