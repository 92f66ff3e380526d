package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrActionFailed is recorded for a task whose action returned false.
var ErrActionFailed = errors.New("action reported failure")

// ErrInterrupted may be returned by an action to report that it was
// interrupted rather than failed.
var ErrInterrupted = errors.New("interrupted")

// FailureKind classifies how a node stopped.
type FailureKind int

const (
	// ActionFailure is a task returning false.
	ActionFailure FailureKind = iota + 1
	// ActionException is a task or hook returning an error or panicking.
	ActionException
	// InterruptedSignal is a cancellation observed while running.
	InterruptedSignal
)

func (k FailureKind) String() string {
	switch k {
	case ActionFailure:
		return "ActionFailure"
	case ActionException:
		return "ActionException"
	case InterruptedSignal:
		return "Interrupted"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// ActionError records why a node stopped, tagged with the node's id.
type ActionError struct {
	RunnableID string
	Kind       FailureKind
	Err        error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.RunnableID, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Outcome maps the failure to a result outcome.
func (e *ActionError) Outcome() Outcome {
	if e.Kind == InterruptedSignal {
		return Interrupted
	}
	return Failed
}

// Title names the failure for display.
func (e *ActionError) Title() string {
	if e.Kind == InterruptedSignal {
		return "Interrupted"
	}
	var titled interface{ Title() string }
	if errors.As(e.Err, &titled) {
		return titled.Title()
	}
	if e.Kind == ActionFailure {
		return "ActionFailure"
	}
	return "Error"
}

// Message is the display message of the underlying error.
func (e *ActionError) Message() string {
	var detailed interface{ Detail() string }
	if errors.As(e.Err, &detailed) {
		return detailed.Detail()
	}
	return e.Err.Error()
}

func classify(ctx context.Context, id string, v any, err error) *ActionError {
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrInterrupted) {
			return &ActionError{RunnableID: id, Kind: InterruptedSignal, Err: err}
		}
		return &ActionError{RunnableID: id, Kind: ActionException, Err: err}
	}
	if ok, isBool := v.(bool); isBool && !ok {
		return &ActionError{RunnableID: id, Kind: ActionFailure, Err: ErrActionFailed}
	}
	return nil
}

// StructuralError reports a pipeline that cannot run: an invalid tree or
// invalid run options. It is returned before any task executes.
type StructuralError struct {
	Err error
}

func (e *StructuralError) Error() string {
	return "invalid pipeline: " + e.Err.Error()
}

func (e *StructuralError) Unwrap() error { return e.Err }

// Process exit codes for a run.
const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitStructural  = 2
	ExitInterrupted = 130
)

// ExitCode maps the return values of Run to a process exit code.
func ExitCode(res *Result, err error) int {
	if err != nil {
		var se *StructuralError
		if errors.As(err, &se) {
			return ExitStructural
		}
		return ExitFailure
	}
	if res == nil {
		return ExitFailure
	}
	switch res.Outcome() {
	case Completed:
		return ExitSuccess
	case Interrupted:
		return ExitInterrupted
	}
	return ExitFailure
}
