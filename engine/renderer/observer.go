package renderer

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a renderer.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// BootstrapID is the ModuleID of serious errors raised while the renderer creates its own GPU
// objects during Initialize.
const BootstrapID = "renderer"

// SeriousError is a resource creation failure attributed to the module it happened in.
type SeriousError struct {
	ModuleID string
	Err      error
}

func (e SeriousError) Error() string {
	return fmt.Sprintf("module %s: %v", e.ModuleID, e.Err)
}

func (e SeriousError) Unwrap() error {
	return e.Err
}

// JoinSeriousErrors folds a batch into one error, nil for an empty batch.
func JoinSeriousErrors(errs []SeriousError) error {
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}

// Observer receives renderer notifications. Methods may be called from the goroutine driving
// Update and must not call back into the renderer.
type Observer interface {
	// SeriousErrors receives every failure of one module initialization batch at once.
	SeriousErrors(errs []SeriousError)

	// SessionInterrupted forwards a tracking interruption.
	SessionInterrupted()

	// SessionInterruptionEnded forwards the end of a tracking interruption.
	SessionInterruptionEnded()

	// StateChanged reports a renderer state transition.
	StateChanged(from, to State)
}
