// Package traverse implements a single-pass tree walker driven by enter and
// exit callbacks, with a rollback pass over the nodes left open when a
// callback fails.
//
// The walker schedules nodes in a work container (a stack for depth-first,
// a queue for breadth-first) interleaved with sentinels. A sentinel marks
// the point where every descendant of a node has been exited, so popping
// one exits the node on top of the open-ancestors container.
package traverse

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Node is a tree node the walker can visit. The parent link is set by the
// walker on every enter, so the same tree can be walked repeatedly.
type Node[N any] interface {
	comparable
	Children() []N
	Parent() N
	SetParent(N)
}

// Order selects the visiting order.
type Order int

const (
	DepthFirst Order = iota
	BreadthFirst
)

// ParseOrder parses "dfs" or "bfs". An empty string selects depth-first.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dfs":
		return DepthFirst, nil
	case "bfs":
		return BreadthFirst, nil
	}
	return 0, fmt.Errorf("unknown traversal order %q (want dfs or bfs)", s)
}

func (o Order) String() string {
	switch o {
	case DepthFirst:
		return "dfs"
	case BreadthFirst:
		return "bfs"
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

// Valid reports whether o is a known order.
func (o Order) Valid() bool { return o == DepthFirst || o == BreadthFirst }

// RollbackMode selects which nodes the rollback pass visits and in what
// order.
type RollbackMode int

const (
	// Backtrace visits every entered node, most recently entered first.
	Backtrace RollbackMode = iota
	// ParentChain visits the nodes still open when the sweep halted,
	// innermost first.
	ParentChain
	// ParentPointer follows Parent links from the failing node to the root.
	ParentPointer
)

// ParseRollbackMode parses "backtrace", "parent-chain" or "parent-pointer".
// An empty string selects backtrace.
func ParseRollbackMode(s string) (RollbackMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "backtrace":
		return Backtrace, nil
	case "parent-chain", "parent":
		return ParentChain, nil
	case "parent-pointer", "parent_pointer":
		return ParentPointer, nil
	}
	return 0, fmt.Errorf("unknown rollback mode %q (want backtrace, parent-chain or parent-pointer)", s)
}

func (m RollbackMode) String() string {
	switch m {
	case Backtrace:
		return "backtrace"
	case ParentChain:
		return "parent-chain"
	case ParentPointer:
		return "parent-pointer"
	}
	return fmt.Sprintf("RollbackMode(%d)", int(m))
}

// Valid reports whether m is a known rollback mode.
func (m RollbackMode) Valid() bool { return m >= Backtrace && m <= ParentPointer }

// Callback is invoked with the node's parent (the zero value for the root)
// and the node. A non-nil error halts the sweep.
type Callback[N any] func(parent, node N) error

// Callbacks groups the per-node hooks. Nil hooks are no-ops.
type Callbacks[N any] struct {
	Enter Callback[N]
	Exit  Callback[N]
}

// Walker walks a tree once per call to Walk.
type Walker[N Node[N]] struct {
	Order     Order
	Callbacks Callbacks[N]
}

type step[N any] struct {
	node     N
	sentinel bool
}

// Walk runs the forward sweep from root and returns its final state. When
// Enter fails for a node, Exit is called for it straight away and the sweep
// stops; nodes still scheduled are never entered.
func (w Walker[N]) Walk(root N) *Sweep[N] {
	s := &Sweep[N]{
		open:      ForOrder[N](w.Order),
		backtrack: NewStack[N](),
	}
	work := ForOrder(w.Order, step[N]{node: root})

	for !work.Empty() {
		st := work.Pop()
		if st.sentinel {
			node := s.open.Pop()
			if err := invoke(w.Callbacks.Exit, node.Parent(), node); err != nil {
				s.halt(node, err)
				return s
			}
			continue
		}

		node := st.node
		parent, _ := s.open.Peek()
		node.SetParent(parent)
		if err := invoke(w.Callbacks.Enter, parent, node); err != nil {
			if exitErr := invoke(w.Callbacks.Exit, parent, node); exitErr != nil {
				err = multierror.Append(err, exitErr)
			}
			s.halt(node, err)
			return s
		}
		s.open.Push(node)
		s.backtrack.Push(node)

		children := node.Children()
		if w.Order == BreadthFirst {
			for _, c := range children {
				work.Push(step[N]{node: c})
			}
			work.Push(step[N]{sentinel: true})
			continue
		}
		work.Push(step[N]{sentinel: true})
		for i := len(children) - 1; i >= 0; i-- {
			work.Push(step[N]{node: children[i]})
		}
	}
	return s
}

func invoke[N any](fn Callback[N], parent, node N) error {
	if fn == nil {
		return nil
	}
	return fn(parent, node)
}

// Sweep is the state left behind by one forward pass.
type Sweep[N Node[N]] struct {
	open      *Container[N]
	backtrack *Container[N]
	failed    N
	halted    bool
	err       error
}

func (s *Sweep[N]) halt(node N, err error) {
	s.failed = node
	s.halted = true
	s.err = err
}

// Halted reports whether a callback failed and stopped the sweep.
func (s *Sweep[N]) Halted() bool { return s.halted }

// Err returns the error that halted the sweep, if any.
func (s *Sweep[N]) Err() error { return s.err }

// Failed returns the node whose callback halted the sweep.
func (s *Sweep[N]) Failed() (N, bool) { return s.failed, s.halted }

// Open returns the nodes entered but not exited, innermost first.
func (s *Sweep[N]) Open() []N {
	return reversed(s.open.Items())
}

// Entered returns every entered node in entry order.
func (s *Sweep[N]) Entered() []N {
	return s.backtrack.Items()
}

// Rollback visits nodes according to mode, calling fn(node.Parent(), node)
// for each. Every node is popped before its callback runs. It does nothing
// unless the sweep halted. Callback errors are collected and never stop the
// pass. Rollback leaves the sweep unchanged, so it may run more than once.
func (s *Sweep[N]) Rollback(mode RollbackMode, fn Callback[N]) error {
	if !s.halted || fn == nil {
		return nil
	}

	var result *multierror.Error
	visit := func(n N) {
		if err := fn(n.Parent(), n); err != nil {
			result = multierror.Append(result, err)
		}
	}

	switch mode {
	case Backtrace:
		trail := NewStack(s.backtrack.Items()...)
		for !trail.Empty() {
			visit(trail.Pop())
		}
	case ParentChain:
		chain := NewStack(s.open.Items()...)
		for !chain.Empty() {
			visit(chain.Pop())
		}
	case ParentPointer:
		var zero N
		for n := s.failed.Parent(); n != zero; n = n.Parent() {
			visit(n)
		}
	default:
		return fmt.Errorf("unknown rollback mode %s", mode)
	}
	return result.ErrorOrNil()
}

func reversed[T any](items []T) []T {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}
