package pipeline

import (
	"time"

	"github.com/deixis/pipewalk/internal/traverse"
)

// Outcome is the final state of a result node.
type Outcome int

// Outcomes in increasing precedence: a node's outcome is the highest of its
// own and its children's.
const (
	Completed Outcome = iota
	Failed
	Interrupted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "done"
	case Failed:
		return "failed"
	case Interrupted:
		return "interrupted"
	}
	return "unknown"
}

// Glyph returns the status mark used in renderings.
func (o Outcome) Glyph() string {
	switch o {
	case Completed:
		return "✓"
	case Failed:
		return "✗"
	case Interrupted:
		return "⚠"
	}
	return "?"
}

// Result records the execution of one runnable. Children appear in
// completion order, keyed by id.
type Result struct {
	ID          string
	Kind        Kind
	Depth       int
	ReturnValue any
	Self        time.Duration // time spent in this node's own action
	Started     time.Time
	Finished    time.Time
	RolledBack  bool
	RollbackErr error

	err      *ActionError
	parent   *Result
	children []*Result
	index    map[string]int
	replaced time.Duration // elapsed time of children superseded by a rerun
}

func newResult(r Runnable) *Result {
	return &Result{
		ID:      r.ID(),
		Kind:    r.Kind(),
		Depth:   r.Depth(),
		Started: time.Now(),
	}
}

// Children returns the child results in completion order.
func (r *Result) Children() []*Result { return r.children }

// Parent returns the enclosing result, or nil for the root.
func (r *Result) Parent() *Result { return r.parent }

// Child returns the child result with the given id.
func (r *Result) Child(id string) (*Result, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.children[i], true
}

// attach records c as a child. Attaching an id again replaces the earlier
// entry in place; the earlier entry's time still counts towards Elapsed.
func (r *Result) attach(c *Result) {
	c.parent = r
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[c.ID]; ok {
		if old := r.children[i]; old != c {
			r.replaced += old.Elapsed()
		}
		r.children[i] = c
		return
	}
	r.index[c.ID] = len(r.children)
	r.children = append(r.children, c)
}

// Elapsed returns the node's own time plus the elapsed time of every child
// run, including runs of a child selected more than once.
func (r *Result) Elapsed() time.Duration {
	d := r.Self + r.replaced
	for _, c := range r.children {
		d += c.Elapsed()
	}
	return d
}

// Outcome combines the node's own state with its children's.
func (r *Result) Outcome() Outcome {
	o := Completed
	if r.err != nil {
		o = r.err.Outcome()
	}
	for _, c := range r.children {
		if co := c.Outcome(); co > o {
			o = co
		}
	}
	return o
}

// Completed reports whether the node and every child completed.
func (r *Result) Completed() bool { return r.Outcome() == Completed }

// Failed reports whether the outcome is Failed.
func (r *Result) Failed() bool { return r.Outcome() == Failed }

// Interrupted reports whether the outcome is Interrupted.
func (r *Result) Interrupted() bool { return r.Outcome() == Interrupted }

// Origin returns the result that recorded the failure, searching this node
// and its descendants. An interruption takes precedence over a failure.
func (r *Result) Origin() *Result {
	if r.err != nil {
		return r
	}
	var best *Result
	for _, c := range r.children {
		o := c.Origin()
		if o != nil && (best == nil || o.err.Outcome() > best.err.Outcome()) {
			best = o
		}
	}
	return best
}

// Err returns the *ActionError recorded by this node or its failing
// descendant, or nil.
func (r *Result) Err() error {
	if o := r.Origin(); o != nil {
		return o.err
	}
	return nil
}

// Own returns the error recorded by this node itself, or nil.
func (r *Result) Own() *ActionError { return r.err }

// Wall returns the wall-clock duration between start and finish.
func (r *Result) Wall() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Walk calls fn for r and every descendant, depth-first. Parent links are
// left untouched.
func (r *Result) Walk(fn func(*Result)) {
	_ = walkResults(r, func(n *Result) error {
		fn(n)
		return nil
	})
}

// view adapts a result tree to traverse.Node without letting the walker
// rewrite parent links.
type view struct{ r *Result }

func (v view) Children() []view {
	out := make([]view, len(v.r.children))
	for i, c := range v.r.children {
		out[i] = view{c}
	}
	return out
}

func (v view) Parent() view {
	if v.r == nil {
		return view{}
	}
	return view{v.r.parent}
}

func (view) SetParent(view) {}

// walkResults visits root and its descendants depth-first, stopping at the
// first error from fn.
func walkResults(root *Result, fn func(*Result) error) error {
	w := traverse.Walker[view]{Callbacks: traverse.Callbacks[view]{
		Enter: func(_, v view) error { return fn(v.r) },
	}}
	return w.Walk(view{root}).Err()
}
