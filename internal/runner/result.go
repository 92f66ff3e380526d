package runner

import (
	"fmt"
	"strings"
	"time"
)

// Result holds the output of a command execution.
type Result struct {
	RunID     string   // unique identifier for this run
	Argv      []string // the executed command
	ExitCode  int      // process exit code
	Stdout    []byte   // captured stdout (may be truncated)
	Stderr    []byte   // captured stderr (may be truncated)
	Truncated bool     // true if output exceeded the size cap
	Duration  time.Duration
}

// Err returns an *ExitError when the command exited non-zero.
func (r *Result) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	return &ExitError{Argv: r.Argv, Code: r.ExitCode, Stderr: string(r.Stderr)}
}

func (r *Result) String() string {
	return fmt.Sprintf("exit status %d", r.ExitCode)
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Argv   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", Quote(e.Argv), e.Code)
}

// Title names the failure kind.
func (e *ExitError) Title() string { return "ExitError" }

// Detail is the one-line message shown next to a failed task.
func (e *ExitError) Detail() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = fmt.Sprintf("%s returned non-zero exit status %d", Quote(e.Argv), e.Code)
	}
	return fmt.Sprintf("[Errno %d] %s", e.Code, FirstLine(msg))
}

// NotFoundError reports a command whose binary could not be located.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Name, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// Title names the failure kind.
func (e *NotFoundError) Title() string { return "CommandNotFound" }

// Detail is the one-line message shown next to a failed task.
func (e *NotFoundError) Detail() string {
	return fmt.Sprintf("[Errno 2] No such file or directory: %q", e.Name)
}

// Quote joins argv into a single quoted command line.
func Quote(argv []string) string {
	return fmt.Sprintf("%q", strings.Join(argv, " "))
}

// FirstLine returns the first non-empty line of s.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
