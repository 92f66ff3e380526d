package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/deixis/pipewalk/internal/logging"
	"github.com/deixis/pipewalk/internal/traverse"
)

// Hook observes a node during a run. parent is the enclosing node's result,
// nil for the root. A non-nil error from Enter or Exit fails the node.
type Hook func(parent *Result, node Runnable) error

// Hooks are caller callbacks invoked alongside the engine's own.
type Hooks struct {
	Enter    Hook
	Exit     Hook
	Rollback Hook
}

// Options configures a run.
type Options struct {
	Order    traverse.Order
	Rollback traverse.RollbackMode
	Hooks    Hooks
	Runner   CommandRunner // required by shell tasks
	Counter  *Counter      // defaults to DefaultCounter
}

func (o Options) validate() error {
	var result *multierror.Error
	if !o.Order.Valid() {
		result = multierror.Append(result, fmt.Errorf("unknown traversal order %s", o.Order))
	}
	if !o.Rollback.Valid() {
		result = multierror.Append(result, fmt.Errorf("unknown rollback mode %s", o.Rollback))
	}
	return result.ErrorOrNil()
}

// Run validates root and executes it in a single traversal. The returned
// error is a *StructuralError when the tree or options are invalid, in which
// case nothing ran. Action failures are reported through the result.
//
// When a node fails or the context is cancelled, the traversal stops, the
// rollback pass runs over the nodes selected by opts.Rollback, and every
// node still open is closed into its parent so the root result is complete.
func Run(ctx context.Context, root Runnable, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, &StructuralError{Err: err}
	}
	if err := Validate(root); err != nil {
		return nil, err
	}

	x := &execution{
		ctx:     ctx,
		opts:    opts,
		counter: opts.Counter,
		log:     logging.FromContext(ctx),
		results: make(map[Runnable]*Result),
	}
	if x.counter == nil {
		x.counter = DefaultCounter
	}

	w := traverse.Walker[Runnable]{
		Order: opts.Order,
		Callbacks: traverse.Callbacks[Runnable]{
			Enter: x.enter,
			Exit:  x.exit,
		},
	}
	sweep := w.Walk(root)
	if sweep.Halted() {
		failed, _ := sweep.Failed()
		x.log.WithFields(logrus.Fields{
			"node":     failed.ID(),
			"rollback": opts.Rollback.String(),
		}).Debugf("halted: %v", sweep.Err())

		if err := sweep.Rollback(opts.Rollback, x.rollback); err != nil {
			x.log.Warnf("rollback: %v", err)
		}
		x.close(sweep.Open())
	}
	return x.results[root], nil
}

type execution struct {
	ctx     context.Context
	opts    Options
	counter *Counter
	log     logrus.FieldLogger
	results map[Runnable]*Result
}

func (x *execution) enter(parent, r Runnable) error {
	n := r.core()
	if n.id == "" {
		n.id = x.counter.Next()
	}
	n.depth = 0
	if parent != nil {
		n.depth = parent.Depth() + 1
	}

	res := newResult(r)
	x.results[r] = res
	x.log.Debugf("%s %s started", r.Kind(), r.ID())

	if err := x.ctx.Err(); err != nil {
		res.err = &ActionError{RunnableID: r.ID(), Kind: InterruptedSignal, Err: err}
		return res.err
	}
	if h := x.opts.Hooks.Enter; h != nil {
		if err := h(x.results[parent], r); err != nil {
			res.err = classify(x.ctx, r.ID(), nil, err)
			return res.err
		}
	}

	t, ok := r.(*Task)
	if !ok {
		return nil
	}
	start := time.Now()
	v, err := t.perform(x.ctx, x.opts.Runner)
	res.Self = time.Since(start)
	res.ReturnValue = v
	if aerr := classify(x.ctx, r.ID(), v, err); aerr != nil {
		res.err = aerr
		return aerr
	}
	return nil
}

func (x *execution) exit(parent, r Runnable) error {
	res := x.results[r]
	res.Finished = time.Now()

	var hookErr *ActionError
	if h := x.opts.Hooks.Exit; h != nil && res.err == nil {
		if err := h(x.results[parent], r); err != nil {
			hookErr = classify(x.ctx, r.ID(), nil, err)
			res.err = hookErr
		}
	}

	if p := x.results[parent]; p != nil {
		p.attach(res)
	}

	o := res.Outcome()
	entry := x.log.WithField("elapsed", fmt.Sprintf("%.4f", res.Elapsed().Seconds()))
	if o == Completed {
		entry.Debugf("%s %s %s %s", r.Kind(), r.ID(), o, o.Glyph())
	} else {
		entry.Infof("%s %s %s %s", r.Kind(), r.ID(), o, o.Glyph())
	}

	if hookErr != nil {
		return hookErr
	}
	return nil
}

func (x *execution) rollback(parent, r Runnable) error {
	res := x.results[r]
	if res == nil {
		return nil
	}
	res.RolledBack = true
	x.log.Debugf("rolling back %s %s", r.Kind(), r.ID())

	var result *multierror.Error
	if t, ok := r.(*Task); ok && t.hasUndo() && res.err == nil {
		// Undo runs even when the run was cancelled.
		ctx := context.WithoutCancel(x.ctx)
		if err := t.revert(ctx, x.opts.Runner); err != nil {
			result = multierror.Append(result, fmt.Errorf("undo %s: %w", r.ID(), err))
		}
	}
	if h := x.opts.Hooks.Rollback; h != nil {
		if err := h(x.results[parent], r); err != nil {
			result = multierror.Append(result, fmt.Errorf("rollback %s: %w", r.ID(), err))
		}
	}
	res.RollbackErr = result.ErrorOrNil()
	return res.RollbackErr
}

// close attaches every node left open by a halted sweep to its parent.
func (x *execution) close(open []Runnable) {
	now := time.Now()
	for _, r := range open {
		res := x.results[r]
		if res.Finished.IsZero() {
			res.Finished = now
		}
		if p := r.Parent(); p != nil {
			if pr := x.results[p]; pr != nil {
				pr.attach(res)
			}
		}
	}
}
