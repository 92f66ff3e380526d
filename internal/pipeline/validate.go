package pipeline

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validate checks that root forms a runnable tree: no nil nodes, no node
// that is its own ancestor, every task has something to run and every
// selection index is non-negative. All problems are reported together in a
// *StructuralError.
func Validate(root Runnable) error {
	v := &validator{onPath: make(map[Runnable]bool)}
	v.visit(root, "root")
	if err := v.errs.ErrorOrNil(); err != nil {
		return &StructuralError{Err: err}
	}
	return nil
}

type validator struct {
	onPath map[Runnable]bool
	errs   *multierror.Error
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: "+format, append([]any{path}, args...)...))
}

func (v *validator) visit(r Runnable, path string) {
	if isNil(r) {
		v.fail(path, "nil runnable")
		return
	}
	if r.ID() != "" {
		path = fmt.Sprintf("%s(%s)", path, r.ID())
	}
	if v.onPath[r] {
		v.fail(path, "%s is its own ancestor", r.Kind())
		return
	}

	switch t := r.(type) {
	case *Task:
		switch {
		case t.isShell && len(t.argv) == 0:
			v.fail(path, "shell task has an empty command")
		case !t.isShell && t.action == nil:
			v.fail(path, "task has no action")
		}
	case *Selector:
		if err := t.selection.validate(); err != nil {
			v.fail(path, "%v", err)
		}
	}

	v.onPath[r] = true
	for i, c := range r.Declared() {
		v.visit(c, fmt.Sprintf("%s/%d", path, i))
	}
	delete(v.onPath, r)
}

func isNil(r Runnable) bool {
	switch t := r.(type) {
	case nil:
		return true
	case *Task:
		return t == nil
	case *Sequence:
		return t == nil
	case *Selector:
		return t == nil
	}
	return false
}
