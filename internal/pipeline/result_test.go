package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_OutcomePrecedence(t *testing.T) {
	root := &Result{ID: "root", Kind: KindSequence}
	failed := leaf("f", 1, 0)
	failed.err = &ActionError{RunnableID: "f", Kind: ActionException, Err: errors.New("x")}
	stopped := leaf("s", 1, 0)
	stopped.err = &ActionError{RunnableID: "s", Kind: InterruptedSignal, Err: context.Canceled}

	root.attach(leaf("ok", 1, 0))
	assert.Equal(t, Completed, root.Outcome())

	root.attach(failed)
	assert.Equal(t, Failed, root.Outcome())
	assert.Same(t, failed, root.Origin())

	root.attach(stopped)
	assert.Equal(t, Interrupted, root.Outcome())
	assert.Same(t, stopped, root.Origin())
}

func TestResult_AttachReplacesSameID(t *testing.T) {
	root := &Result{ID: "root"}
	first := leaf("a", 1, 0)
	second := leaf("a", 1, 0)
	root.attach(first)
	root.attach(leaf("b", 1, 0))
	root.attach(second)

	require.Len(t, root.Children(), 2)
	got, ok := root.Child("a")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, "a", root.Children()[0].ID)
	assert.Same(t, root, second.Parent())

	_, ok = root.Child("missing")
	assert.False(t, ok)
}

func TestResult_ReplacedChildStillCountsTime(t *testing.T) {
	root := &Result{ID: "root", Kind: KindSelector}
	root.attach(leaf("a", 1, 30*time.Millisecond))
	root.attach(leaf("a", 1, 20*time.Millisecond))

	require.Len(t, root.Children(), 1)
	assert.Equal(t, 50*time.Millisecond, root.Elapsed())

	// Re-attaching the same result is not a rerun.
	again, _ := root.Child("a")
	root.attach(again)
	assert.Equal(t, 50*time.Millisecond, root.Elapsed())
}

func TestResult_WalkKeepsParents(t *testing.T) {
	root := &Result{ID: "root", Kind: KindSequence}
	inner := &Result{ID: "inner", Kind: KindSequence, Depth: 1}
	root.attach(inner)
	inner.attach(leaf("a", 2, 0))

	var ids []string
	inner.Walk(func(r *Result) { ids = append(ids, r.ID) })

	assert.Equal(t, []string{"inner", "a"}, ids)
	assert.Same(t, root, inner.Parent())
}

func TestResult_ErrNilWhenCompleted(t *testing.T) {
	root := &Result{ID: "root"}
	root.attach(leaf("a", 1, 0))
	assert.NoError(t, root.Err())
	assert.Nil(t, root.Origin())
}

func TestOutcome_Strings(t *testing.T) {
	assert.Equal(t, "done ✓", Completed.String()+" "+Completed.Glyph())
	assert.Equal(t, "failed ✗", Failed.String()+" "+Failed.Glyph())
	assert.Equal(t, "interrupted ⚠", Interrupted.String()+" "+Interrupted.Glyph())
}

func TestExitCode(t *testing.T) {
	ok := leaf("a", 0, 0)
	assert.Equal(t, ExitSuccess, ExitCode(ok, nil))
	assert.Equal(t, ExitFailure, ExitCode(nil, errors.New("io")))
	assert.Equal(t, ExitStructural, ExitCode(nil, &StructuralError{Err: errors.New("cycle")}))

	bad := leaf("b", 0, 0)
	bad.err = &ActionError{RunnableID: "b", Kind: ActionFailure, Err: ErrActionFailed}
	assert.Equal(t, ExitFailure, ExitCode(bad, nil))
}
