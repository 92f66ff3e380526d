package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/deixis/pipewalk/internal/runner"
)

// Action is the work performed by a Task. Returning false (as a bool value)
// marks the task failed without an error.
type Action func(ctx context.Context) (any, error)

// Func adapts a function that only reports an error.
func Func(fn func(ctx context.Context) error) Action {
	return func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	}
}

// Predicate adapts a function that reports success as a bool.
func Predicate(fn func(ctx context.Context) bool) Action {
	return func(ctx context.Context) (any, error) {
		return fn(ctx), nil
	}
}

// CommandRunner executes shell task commands.
type CommandRunner interface {
	Run(ctx context.Context, cmd runner.Command) (*runner.Result, error)
}

// Task is a leaf runnable performing one action: either a Go callback or a
// command executed through the run's CommandRunner.
type Task struct {
	node
	action  Action
	argv    []string
	dir     string
	stream  bool
	undo    Action
	undoCmd []string
	isShell bool
}

// NewTask returns a task running action. An empty id is replaced by a
// counter value on first run.
func NewTask(id string, action Action) *Task {
	return &Task{node: node{id: id}, action: action}
}

// NewShellTask returns a task executing argv. Its identifier defaults to
// the quoted command line.
func NewShellTask(argv ...string) *Task {
	t := &Task{argv: argv, isShell: true}
	if len(argv) > 0 {
		t.id = runner.Quote(argv)
	}
	return t
}

// ShellLine returns a shell task for a whitespace-separated command line.
func ShellLine(line string) *Task {
	return NewShellTask(strings.Fields(line)...)
}

// WithID sets the identifier.
func (t *Task) WithID(id string) *Task {
	t.id = id
	return t
}

// InDir sets the working directory of a shell task.
func (t *Task) InDir(dir string) *Task {
	t.dir = dir
	return t
}

// Streaming mirrors a shell task's output live while still capturing it.
func (t *Task) Streaming() *Task {
	t.stream = true
	return t
}

// WithUndo registers an action run when the task is rolled back after
// completing.
func (t *Task) WithUndo(undo Action) *Task {
	t.undo = undo
	return t
}

// WithUndoCommand registers a command run through the CommandRunner when
// the task is rolled back after completing.
func (t *Task) WithUndoCommand(argv ...string) *Task {
	t.undoCmd = argv
	return t
}

// Command returns the argv of a shell task, or nil.
func (t *Task) Command() []string { return t.argv }

// Shell reports whether the task executes a command.
func (t *Task) Shell() bool { return t.isShell }

func (t *Task) Kind() Kind           { return KindTask }
func (t *Task) Children() []Runnable { return nil }
func (t *Task) Declared() []Runnable { return nil }

// Run executes the task as the root of a pipeline.
func (t *Task) Run(ctx context.Context, opts Options) (*Result, error) {
	return Run(ctx, t, opts)
}

// perform runs the task's action, converting panics into errors.
func (t *Task) perform(ctx context.Context, cr CommandRunner) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if !t.isShell {
		return t.action(ctx)
	}
	if cr == nil {
		return nil, errors.New("no command runner configured for shell tasks")
	}
	res, err := cr.Run(ctx, runner.Command{Argv: t.argv, Dir: t.dir, Stream: t.stream})
	if err != nil {
		return nil, err
	}
	return res, res.Err()
}

func (t *Task) hasUndo() bool { return t.undo != nil || len(t.undoCmd) > 0 }

// revert runs the task's undo action or command.
func (t *Task) revert(ctx context.Context, cr CommandRunner) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if t.undo != nil {
		_, err = t.undo(ctx)
		return err
	}
	if cr == nil {
		return errors.New("no command runner configured for undo commands")
	}
	res, err := cr.Run(ctx, runner.Command{Argv: t.undoCmd, Dir: t.dir})
	if err != nil {
		return err
	}
	return res.Err()
}

// PanicError carries a panic recovered from a task action.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Title names the failure kind.
func (e *PanicError) Title() string { return "Panic" }

// Detail is the one-line message shown next to a failed task.
func (e *PanicError) Detail() string { return fmt.Sprint(e.Value) }
