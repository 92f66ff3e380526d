// Package pipeline builds trees of runnable nodes and executes them with the
// traverse engine, producing a result tree that mirrors what ran.
//
// A Task is a leaf that performs one action. A Sequence runs every child in
// declared order. A Selector runs the subset of its children picked by a
// selection rule. All three are executed by the same traversal, so the
// order (depth-first or breadth-first) and the rollback strategy are
// properties of a run, not of the nodes.
package pipeline

import (
	"context"
	"strconv"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies a runnable variant.
type Kind string

const (
	KindTask     Kind = "task"
	KindSequence Kind = "sequence"
	KindSelector Kind = "selector"
)

// String returns the display name, e.g. "Sequence".
func (k Kind) String() string {
	return cases.Title(language.English).String(string(k))
}

// Runnable is a node of a pipeline tree. The variants are *Task, *Sequence
// and *Selector.
type Runnable interface {
	// Children returns the children the traversal visits. For a Selector
	// this is the resolved selection, not the declared list.
	Children() []Runnable
	Parent() Runnable
	SetParent(Runnable)

	ID() string
	Kind() Kind
	Depth() int
	// Declared returns every child as constructed.
	Declared() []Runnable

	core() *node
}

// node holds the state shared by every runnable. Parent and depth are
// reassigned on each traversal.
type node struct {
	id     string
	depth  int
	parent Runnable
}

func (n *node) ID() string           { return n.id }
func (n *node) Depth() int           { return n.depth }
func (n *node) Parent() Runnable     { return n.parent }
func (n *node) SetParent(p Runnable) { n.parent = p }
func (n *node) core() *node          { return n }

// Counter hands out identifiers to runnables created without one. It is
// safe for concurrent use.
type Counter struct {
	last atomic.Int64
}

// NewCounter returns a counter whose first identifier is "1".
func NewCounter() *Counter { return &Counter{} }

// Next returns the next identifier.
func (c *Counter) Next() string {
	return strconv.FormatInt(c.last.Add(1), 10)
}

// DefaultCounter numbers runnables for the lifetime of the process when
// Options.Counter is nil.
var DefaultCounter = NewCounter()

// Sequence runs all of its children in declared order.
type Sequence struct {
	node
	children []Runnable
}

// NewSequence returns a sequence of children.
func NewSequence(children ...Runnable) *Sequence {
	return &Sequence{children: children}
}

// WithID sets the identifier.
func (s *Sequence) WithID(id string) *Sequence {
	s.id = id
	return s
}

// Add appends children.
func (s *Sequence) Add(children ...Runnable) *Sequence {
	s.children = append(s.children, children...)
	return s
}

func (s *Sequence) Kind() Kind           { return KindSequence }
func (s *Sequence) Children() []Runnable { return s.children }
func (s *Sequence) Declared() []Runnable { return s.children }

// Run executes the sequence as the root of a pipeline.
func (s *Sequence) Run(ctx context.Context, opts Options) (*Result, error) {
	return Run(ctx, s, opts)
}
