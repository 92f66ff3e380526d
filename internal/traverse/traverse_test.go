package traverse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tnode struct {
	name     string
	children []*tnode
	parent   *tnode
}

func (n *tnode) Children() []*tnode { return n.children }
func (n *tnode) Parent() *tnode     { return n.parent }
func (n *tnode) SetParent(p *tnode) { n.parent = p }

func tree(name string, children ...*tnode) *tnode {
	return &tnode{name: name, children: children}
}

// sample returns 1(2(4,5),3(6,7)).
func sample() *tnode {
	return tree("1",
		tree("2", tree("4"), tree("5")),
		tree("3", tree("6"), tree("7")),
	)
}

func all(root *tnode) []*tnode {
	out := []*tnode{root}
	for _, c := range root.children {
		out = append(out, all(c)...)
	}
	return out
}

func find(root *tnode, name string) *tnode {
	for _, n := range all(root) {
		if n.name == name {
			return n
		}
	}
	return nil
}

func name(n *tnode) string {
	if n == nil {
		return ""
	}
	return n.name
}

type recorder struct {
	enter, exit []string
	parents     map[string]string
	failEnter   string
	failExit    string
}

func (r *recorder) callbacks() Callbacks[*tnode] {
	r.parents = map[string]string{}
	return Callbacks[*tnode]{
		Enter: func(parent, node *tnode) error {
			r.enter = append(r.enter, node.name)
			r.parents[node.name] = name(parent)
			if node.name == r.failEnter {
				return errors.New("enter " + node.name)
			}
			return nil
		},
		Exit: func(parent, node *tnode) error {
			r.exit = append(r.exit, node.name)
			if name(parent) != r.parents[node.name] {
				return errors.New("exit parent mismatch for " + node.name)
			}
			if node.name == r.failExit {
				return errors.New("exit " + node.name)
			}
			return nil
		},
	}
}

func names(nodes []*tnode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.name)
	}
	return out
}

func TestWalk_DepthFirst(t *testing.T) {
	rec := &recorder{}
	sweep := Walker[*tnode]{Order: DepthFirst, Callbacks: rec.callbacks()}.Walk(sample())

	require.False(t, sweep.Halted())
	require.NoError(t, sweep.Err())
	if diff := cmp.Diff([]string{"1", "2", "4", "5", "3", "6", "7"}, rec.enter); diff != "" {
		t.Errorf("enter order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"4", "5", "2", "6", "7", "3", "1"}, rec.exit); diff != "" {
		t.Errorf("exit order (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]string{
		"1": "", "2": "1", "3": "1", "4": "2", "5": "2", "6": "3", "7": "3",
	}, rec.parents)
}

func TestWalk_BreadthFirst(t *testing.T) {
	rec := &recorder{}
	sweep := Walker[*tnode]{Order: BreadthFirst, Callbacks: rec.callbacks()}.Walk(sample())

	require.False(t, sweep.Halted())
	if diff := cmp.Diff([]string{"1", "2", "3", "4", "5", "6", "7"}, rec.enter); diff != "" {
		t.Errorf("enter order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "2", "3", "4", "5", "6", "7"}, rec.exit); diff != "" {
		t.Errorf("exit order (-want +got):\n%s", diff)
	}
	assert.Equal(t, map[string]string{
		"1": "", "2": "1", "3": "1", "4": "2", "5": "2", "6": "3", "7": "3",
	}, rec.parents)
}

func TestWalk_EveryNodeEnteredAndExitedOnce(t *testing.T) {
	for _, order := range []Order{DepthFirst, BreadthFirst} {
		t.Run(order.String(), func(t *testing.T) {
			rec := &recorder{}
			Walker[*tnode]{Order: order, Callbacks: rec.callbacks()}.Walk(sample())
			assert.ElementsMatch(t, rec.enter, rec.exit)
			assert.Len(t, rec.enter, 7)
		})
	}
}

func TestWalk_NilCallbacks(t *testing.T) {
	sweep := Walker[*tnode]{}.Walk(sample())
	assert.False(t, sweep.Halted())
	assert.Len(t, sweep.Entered(), 7)
	assert.Empty(t, sweep.Open())
}

func TestWalk_EnterFailureHalts(t *testing.T) {
	rec := &recorder{failEnter: "4"}
	sweep := Walker[*tnode]{Order: DepthFirst, Callbacks: rec.callbacks()}.Walk(sample())

	require.True(t, sweep.Halted())
	assert.EqualError(t, sweep.Err(), "enter 4")
	failed, ok := sweep.Failed()
	require.True(t, ok)
	assert.Equal(t, "4", failed.name)

	// The failing node is finalized immediately, later siblings never run.
	assert.Equal(t, []string{"1", "2", "4"}, rec.enter)
	assert.Equal(t, []string{"4"}, rec.exit)
	assert.Equal(t, []string{"2", "1"}, names(sweep.Open()))
	assert.Equal(t, []string{"1", "2"}, names(sweep.Entered()))
}

func TestWalk_ExitFailureHalts(t *testing.T) {
	rec := &recorder{failExit: "2"}
	sweep := Walker[*tnode]{Order: DepthFirst, Callbacks: rec.callbacks()}.Walk(sample())

	require.True(t, sweep.Halted())
	failed, _ := sweep.Failed()
	assert.Equal(t, "2", failed.name)
	assert.Equal(t, []string{"1", "2", "4", "5"}, rec.enter)
	assert.Equal(t, []string{"4", "5", "2"}, rec.exit)
	assert.Equal(t, []string{"1"}, names(sweep.Open()))
}

func TestWalk_Reusable(t *testing.T) {
	root := sample()
	first := &recorder{}
	Walker[*tnode]{Callbacks: first.callbacks()}.Walk(root)
	second := &recorder{}
	Walker[*tnode]{Callbacks: second.callbacks()}.Walk(root)
	assert.Equal(t, first.enter, second.enter)
	assert.Equal(t, first.exit, second.exit)
}

// pipelineTree returns O(A, I(B, C)).
func pipelineTree() *tnode {
	return tree("O", tree("A"), tree("I", tree("B"), tree("C")))
}

func rollbackOrder(t *testing.T, root *tnode, order Order, fail string, mode RollbackMode) []string {
	t.Helper()
	rec := &recorder{failEnter: fail}
	sweep := Walker[*tnode]{Order: order, Callbacks: rec.callbacks()}.Walk(root)
	require.True(t, sweep.Halted())

	var visited []string
	err := sweep.Rollback(mode, func(parent, node *tnode) error {
		assert.Equal(t, name(node.Parent()), name(parent))
		visited = append(visited, node.name)
		return nil
	})
	require.NoError(t, err)
	return visited
}

func TestRollback_Modes(t *testing.T) {
	tests := []struct {
		mode RollbackMode
		want []string
	}{
		{Backtrace, []string{"B", "I", "A", "O"}},
		{ParentChain, []string{"I", "O"}},
		{ParentPointer, []string{"I", "O"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got := rollbackOrder(t, pipelineTree(), DepthFirst, "C", tt.mode)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rollback order (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRollback_ParentPointerMatchesParentChain(t *testing.T) {
	root := tree("r",
		tree("a", tree("a1", tree("a11"), tree("a12")), tree("a2")),
		tree("b"),
		tree("c", tree("c1"), tree("c2", tree("c21"))),
	)
	for _, n := range all(root) {
		t.Run(n.name, func(t *testing.T) {
			chain := rollbackOrder(t, root, DepthFirst, n.name, ParentChain)
			pointer := rollbackOrder(t, root, DepthFirst, n.name, ParentPointer)
			if diff := cmp.Diff(chain, pointer); diff != "" {
				t.Errorf("parent-pointer differs from parent-chain (-chain +pointer):\n%s", diff)
			}
		})
	}
}

func TestRollback_BreadthFirstFrontier(t *testing.T) {
	got := rollbackOrder(t, sample(), BreadthFirst, "6", ParentChain)
	assert.Equal(t, []string{"5", "4", "3"}, got)

	got = rollbackOrder(t, sample(), BreadthFirst, "6", ParentPointer)
	assert.Equal(t, []string{"3", "1"}, got)
}

func TestRollback_RootFailure(t *testing.T) {
	for _, mode := range []RollbackMode{Backtrace, ParentChain, ParentPointer} {
		got := rollbackOrder(t, sample(), DepthFirst, "1", mode)
		assert.Empty(t, got, mode.String())
	}
}

func TestRollback_NotHalted(t *testing.T) {
	sweep := Walker[*tnode]{}.Walk(sample())
	called := false
	err := sweep.Rollback(Backtrace, func(_, _ *tnode) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRollback_CollectsErrors(t *testing.T) {
	rec := &recorder{failEnter: "C"}
	sweep := Walker[*tnode]{Callbacks: rec.callbacks()}.Walk(pipelineTree())

	var visited []string
	err := sweep.Rollback(Backtrace, func(_, node *tnode) error {
		visited = append(visited, node.name)
		if node.name == "I" || node.name == "O" {
			return errors.New("undo " + node.name)
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undo I")
	assert.Contains(t, err.Error(), "undo O")
	assert.Equal(t, []string{"B", "I", "A", "O"}, visited)
}

func TestRollback_Repeatable(t *testing.T) {
	rec := &recorder{failEnter: "C"}
	sweep := Walker[*tnode]{Callbacks: rec.callbacks()}.Walk(pipelineTree())
	count := 0
	fn := func(_, _ *tnode) error { count++; return nil }
	require.NoError(t, sweep.Rollback(ParentChain, fn))
	require.NoError(t, sweep.Rollback(ParentChain, fn))
	assert.Equal(t, 4, count)
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"dfs", DepthFirst, false},
		{"", DepthFirst, false},
		{"BFS", BreadthFirst, false},
		{"random", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOrder(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseRollbackMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RollbackMode
		wantErr bool
	}{
		{"backtrace", Backtrace, false},
		{"", Backtrace, false},
		{"parent-chain", ParentChain, false},
		{"parent", ParentChain, false},
		{"parent-pointer", ParentPointer, false},
		{"parent_pointer", ParentPointer, false},
		{"undo", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRollbackMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.False(t, RollbackMode(9).Valid())
	assert.False(t, Order(-1).Valid())
}
