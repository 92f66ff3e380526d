package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/pipewalk/internal/logging"
	"github.com/deixis/pipewalk/internal/manifest"
	"github.com/deixis/pipewalk/internal/pipeline"
	"github.com/deixis/pipewalk/internal/report"
	"github.com/deixis/pipewalk/internal/traverse"
)

// RunOutput holds the full outcome of a pipeline run.
type RunOutput struct {
	Report *report.RunResult
	Result *pipeline.Result
}

// Run loads the manifest at path and executes it. The returned error is
// non-nil only when the run could not start (unreadable or invalid
// manifest, invalid settings); task failures are reported in the output.
func (e *Engine) Run(ctx context.Context, path string, ov Overrides) (*RunOutput, error) {
	m, root, err := e.Load(path)
	if err != nil {
		return nil, err
	}
	order, mode, err := e.Settings(m, ov)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := logging.FromContext(ctx).WithField("run", runID)
	ctx = logging.WithLogger(ctx, log)
	log.Infof("running %s (%s, rollback %s)", m.Source, order, mode)

	started := time.Now()
	res, err := pipeline.Run(ctx, root, pipeline.Options{
		Order:    order,
		Rollback: mode,
		Runner:   e.Runner,
	})
	if err != nil {
		return nil, err
	}

	rr := Snapshot(runID, m, order, mode, started, res)
	if e.Store != nil {
		if err := e.Store.Save(rr); err != nil {
			return nil, fmt.Errorf("saving run %s: %w", runID, err)
		}
	}
	log.Infof("%s %s %.4f", res.Outcome(), res.Outcome().Glyph(), res.Elapsed().Seconds())
	return &RunOutput{Report: rr, Result: res}, nil
}

// Snapshot converts a result tree into its persisted form.
func Snapshot(runID string, m *manifest.Manifest, order traverse.Order, mode traverse.RollbackMode, started time.Time, res *pipeline.Result) *report.RunResult {
	return &report.RunResult{
		ID:       runID,
		Manifest: m.Source,
		Name:     m.Name,
		Order:    order.String(),
		Rollback: mode.String(),
		Outcome:  res.Outcome().String(),
		Started:  started,
		Elapsed:  res.Elapsed().Seconds(),
		Root:     snapshotNode(res),
	}
}

func snapshotNode(r *pipeline.Result) *report.Node {
	n := &report.Node{
		ID:         r.ID,
		Kind:       r.Kind.String(),
		Depth:      r.Depth,
		Outcome:    r.Outcome().String(),
		Elapsed:    r.Elapsed().Seconds(),
		Wall:       r.Wall().Seconds(),
		RolledBack: r.RolledBack,
	}
	if r.ReturnValue != nil {
		n.Return = fmt.Sprint(r.ReturnValue)
	}
	if own := r.Own(); own != nil {
		n.Error = &report.Error{Kind: own.Kind.String(), Title: own.Title(), Message: own.Message()}
	}
	if r.RollbackErr != nil {
		n.RollbackError = r.RollbackErr.Error()
	}
	for _, c := range r.Children() {
		n.Children = append(n.Children, snapshotNode(c))
	}
	return n
}
