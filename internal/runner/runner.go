// Package runner executes shell task commands within a workspace boundary,
// capturing their output up to a size cap and optionally mirroring it live.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxOutput caps captured output when Runner.MaxOutput is unset.
const DefaultMaxOutput = 1 << 20

// Command describes one process to execute.
type Command struct {
	Argv   []string
	Dir    string // relative to the workspace, or absolute within it
	Stream bool   // mirror output live while still capturing it
}

// Runner executes commands within a workspace boundary.
type Runner struct {
	Workspace string
	Timeout   time.Duration // zero means no limit
	MaxOutput int           // bytes

	// Stdout and Stderr receive live output of streamed commands.
	// They default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes cmd. The first argv element is the binary name (resolved via
// PATH). A non-zero exit status is reported through Result.ExitCode, not as
// an error; errors are reserved for commands that could not be started.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Argv) == 0 {
		return nil, fmt.Errorf("empty argv")
	}

	dir, err := r.resolveDir(cmd.Dir)
	if err != nil {
		return nil, err
	}

	maxOutput := r.MaxOutput
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()

	proc := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...)
	proc.Dir = dir

	var stdout, stderr bytes.Buffer
	var outW, errW io.Writer = &limitWriter{buf: &stdout, limit: maxOutput}, &limitWriter{buf: &stderr, limit: maxOutput}
	if cmd.Stream {
		outW = io.MultiWriter(outW, orDefault(r.Stdout, os.Stdout))
		errW = io.MultiWriter(errW, orDefault(r.Stderr, os.Stderr))
	}
	proc.Stdout = outW
	proc.Stderr = errW

	start := time.Now()
	runErr := proc.Run()
	elapsed := time.Since(start)

	truncated := stdout.Len() >= maxOutput || stderr.Len() >= maxOutput

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(runErr, &exitErr):
			exitCode = exitErr.ExitCode()
		case errors.Is(runErr, exec.ErrNotFound):
			return nil, &NotFoundError{Name: cmd.Argv[0], Err: runErr}
		default:
			return nil, fmt.Errorf("executing %s: %w", cmd.Argv[0], runErr)
		}
	}

	return &Result{
		RunID:     runID,
		Argv:      cmd.Argv,
		ExitCode:  exitCode,
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: truncated,
		Duration:  elapsed,
	}, nil
}

func orDefault(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}

// resolveDir resolves cwd relative to the workspace and validates it
// is within the workspace boundary.
func (r *Runner) resolveDir(cwd string) (string, error) {
	if cwd == "" {
		return r.Workspace, nil
	}

	var dir string
	if filepath.IsAbs(cwd) {
		dir = filepath.Clean(cwd)
	} else {
		dir = filepath.Clean(filepath.Join(r.Workspace, cwd))
	}

	rel, err := filepath.Rel(r.Workspace, dir)
	if err != nil {
		return "", fmt.Errorf("resolving cwd: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("cwd %q is outside workspace %q", cwd, r.Workspace)
	}
	return dir, nil
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		// Report everything as consumed so io.Copy never sees a short write.
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
