package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Selection picks children of a Selector by index.
type Selection struct {
	indices []int
	label   string
}

// Bool selects the first child when b is true and the second otherwise.
func Bool(b bool) Selection {
	if b {
		return Selection{indices: []int{0}, label: "true"}
	}
	return Selection{indices: []int{1}, label: "false"}
}

// Index selects a single child.
func Index(i int) Selection {
	return Selection{indices: []int{i}, label: strconv.Itoa(i)}
}

// Indices selects children in the given order. Repeats are allowed and run
// the child again.
func Indices(is ...int) Selection {
	parts := make([]string, len(is))
	for i, v := range is {
		parts[i] = strconv.Itoa(v)
	}
	return Selection{indices: append([]int(nil), is...), label: "[" + strings.Join(parts, ", ") + "]"}
}

// Indices returns the requested indices.
func (s Selection) Indices() []int { return append([]int(nil), s.indices...) }

func (s Selection) String() string { return s.label }

// resolve maps the selection onto n declared children, dropping indices
// that are out of range.
func (s Selection) resolve(n int) []int {
	out := make([]int, 0, len(s.indices))
	for _, i := range s.indices {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}

func (s Selection) validate() error {
	for _, i := range s.indices {
		if i < 0 {
			return fmt.Errorf("negative index %d in selection %s", i, s)
		}
	}
	return nil
}

// Selector runs the subset of its children chosen by a Selection.
type Selector struct {
	node
	children  []Runnable
	selection Selection
}

// NewSelector returns a selector over children.
func NewSelector(sel Selection, children ...Runnable) *Selector {
	return &Selector{children: children, selection: sel}
}

// WithID sets the identifier.
func (s *Selector) WithID(id string) *Selector {
	s.id = id
	return s
}

// Add appends declared children.
func (s *Selector) Add(children ...Runnable) *Selector {
	s.children = append(s.children, children...)
	return s
}

// Selection returns the selection rule.
func (s *Selector) Selection() Selection { return s.selection }

func (s *Selector) Kind() Kind           { return KindSelector }
func (s *Selector) Declared() []Runnable { return s.children }

// Children returns the selected children in selection order.
func (s *Selector) Children() []Runnable {
	idx := s.selection.resolve(len(s.children))
	out := make([]Runnable, len(idx))
	for i, j := range idx {
		out[i] = s.children[j]
	}
	return out
}

// Run executes the selector as the root of a pipeline.
func (s *Selector) Run(ctx context.Context, opts Options) (*Result, error) {
	return Run(ctx, s, opts)
}
