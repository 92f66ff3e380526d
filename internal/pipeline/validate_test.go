package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_OK(t *testing.T) {
	tr := &trace{}
	shared := tr.ok("shared")
	root := NewSequence(shared, NewSelector(Indices(0, 0), shared).WithID("twice")).WithID("root")
	assert.NoError(t, Validate(root))
}

func TestValidate_Cycle(t *testing.T) {
	tr := &trace{}
	inner := NewSequence(tr.ok("a")).WithID("inner")
	root := NewSequence(inner).WithID("root")
	inner.Add(root)

	err := Validate(root)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "Sequence is its own ancestor")
	assert.Contains(t, err.Error(), "root(root)/0(inner)/1(root)")
}

func TestValidate_AggregatesProblems(t *testing.T) {
	var nilTask *Task
	root := NewSequence(
		nilTask,
		NewTask("empty", nil),
		NewShellTask(),
		NewSelector(Indices(1, -2)).WithID("pick"),
		nil,
	).WithID("root")

	err := Validate(root)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "root(root)/0: nil runnable")
	assert.Contains(t, msg, "root(root)/1(empty): task has no action")
	assert.Contains(t, msg, "root(root)/2: shell task has an empty command")
	assert.Contains(t, msg, "negative index -2")
	assert.Contains(t, msg, "root(root)/4: nil runnable")
}

func TestValidate_NilRoot(t *testing.T) {
	_, err := Run(context.Background(), nil, opts())
	var se *StructuralError
	require.ErrorAs(t, err, &se)
}
