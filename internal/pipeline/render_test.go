package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deixis/pipewalk/internal/runner"
)

func leaf(id string, depth int, self time.Duration) *Result {
	return &Result{ID: id, Kind: KindTask, Depth: depth, Self: self}
}

func TestRender(t *testing.T) {
	root := &Result{ID: "build", Kind: KindSequence}
	root.attach(&Result{ID: "lint", Kind: KindTask, Depth: 1, Self: 1500 * time.Microsecond, ReturnValue: true})
	inner := &Result{ID: "compile", Kind: KindSelector, Depth: 1}
	root.attach(inner)
	failed := leaf(`"make all"`, 2, 2*time.Millisecond)
	failed.err = &ActionError{RunnableID: `"make all"`, Kind: ActionException, Err: &runner.ExitError{Argv: []string{"make", "all"}, Code: 2, Stderr: "missing rule\n"}}
	inner.attach(failed)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root, RenderOptions{}))

	want := strings.Join([]string{
		"Sequence build : time: 0.0035 failed ✗",
		"    Task lint : time: 0.0015 return: true done ✓",
		"    Selector compile : time: 0.0020 failed ✗",
		`        Task "make all" : time: 0.0020 failed ✗ (ExitError: [Errno 2] missing rule)`,
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestRender_SubtreeKeepsParent(t *testing.T) {
	root := &Result{ID: "build", Kind: KindSequence}
	inner := &Result{ID: "compile", Kind: KindSequence, Depth: 1}
	root.attach(inner)
	inner.attach(leaf("cc", 2, time.Millisecond))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, inner, RenderOptions{}))

	assert.Equal(t, "    Sequence compile : time: 0.0010 done ✓\n        Task cc : time: 0.0010 done ✓\n", buf.String())
	assert.Same(t, root, inner.Parent())
}

func TestRender_Interrupted(t *testing.T) {
	root := &Result{ID: "1", Kind: KindSequence}
	stop := leaf("wait", 1, 0)
	stop.err = &ActionError{RunnableID: "wait", Kind: InterruptedSignal, Err: context.Canceled}
	root.attach(stop)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, root, RenderOptions{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Sequence 1 : time: 0.0000 interrupted ⚠", lines[0])
	assert.Equal(t, "    Task wait : time: 0.0000 interrupted ⚠ (Interrupted: context canceled)", lines[1])
}

func TestRender_ActionFailureHasNoException(t *testing.T) {
	r := leaf("check", 0, 0)
	r.ReturnValue = false
	r.err = &ActionError{RunnableID: "check", Kind: ActionFailure, Err: ErrActionFailed}
	assert.Equal(t, "Task check : time: 0.0000 return: false failed ✗", Line(r, RenderOptions{}))
}

func TestRender_GenericError(t *testing.T) {
	r := leaf("fetch", 0, 0)
	r.err = &ActionError{RunnableID: "fetch", Kind: ActionException, Err: errors.New("connection refused")}
	assert.Equal(t, "Task fetch : time: 0.0000 failed ✗ (Error: connection refused)", Line(r, RenderOptions{}))
}

func TestRender_Color(t *testing.T) {
	r := leaf("ok", 0, 0)
	assert.Equal(t, "Task ok : time: 0.0000 \033[32mdone ✓\033[0m", Line(r, RenderOptions{Color: true}))
}

func TestRender_FromRun(t *testing.T) {
	root := NewSequence(
		NewTask("one", Func(func(context.Context) error { return nil })),
		NewTask("two", Func(func(context.Context) error { return errors.New("bad input") })),
	).WithID("demo")
	res, err := Run(context.Background(), root, opts())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, RenderOptions{}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Sequence demo : time: "))
	assert.True(t, strings.HasSuffix(lines[0], "failed ✗"))
	assert.True(t, strings.HasSuffix(lines[1], "done ✓"))
	assert.True(t, strings.HasPrefix(lines[2], "    Task two"))
	assert.True(t, strings.HasSuffix(lines[2], "failed ✗ (Error: bad input)"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Task", KindTask.String())
	assert.Equal(t, "Sequence", KindSequence.String())
	assert.Equal(t, "Selector", KindSelector.String())
}
