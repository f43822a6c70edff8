// Package logging provides panic recovery with stack trace logging.
package logging

import (
	"fmt"
	"runtime/debug"
	"time"
)

// RecoveryHandler handles panics with logging
type RecoveryHandler struct {
	Component string
	OnPanic   func(err interface{}, stack string)
}

// NewRecoveryHandler creates a recovery handler for a component
func NewRecoveryHandler(component string) *RecoveryHandler {
	return &RecoveryHandler{
		Component: component,
	}
}

// WrapError executes fn with panic recovery, returning error on panic
func (r *RecoveryHandler) WrapError(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := string(debug.Stack())
			err = r.handlePanic(rec, stack)
		}
	}()
	return fn()
}

// handlePanic logs the panic and calls the custom handler
func (r *RecoveryHandler) handlePanic(rec interface{}, stack string) error {
	errMsg := fmt.Sprintf("panic in %s: %v", r.Component, rec)

	// Panics are always emitted, regardless of the configured level.
	emit(Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     LevelError,
		Component: r.Component,
		Event:     "panic_recovered",
		Error:     fmt.Sprintf("%v", rec),
		Extra: map[string]interface{}{
			"stack":     stack,
			"recovered": true,
		},
	})

	if r.OnPanic != nil {
		r.OnPanic(rec, stack)
	}

	return fmt.Errorf("%s", errMsg)
}

// Recover is a simple defer-able recovery that logs panics
func Recover(component string) {
	if rec := recover(); rec != nil {
		stack := string(debug.Stack())
		handler := NewRecoveryHandler(component)
		handler.handlePanic(rec, stack)
	}
}
