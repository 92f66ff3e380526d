package workflow

import (
	"github.com/deixis/pipewalk/internal/pipeline"
)

// Validation summarises a manifest that parsed and built cleanly.
type Validation struct {
	Source    string
	Name      string
	Order     string
	Rollback  string
	Tasks     int
	Sequences int
	Selectors int
}

// Validate loads the manifest at path and checks that it builds into a
// runnable tree with valid settings. Nothing is executed.
func (e *Engine) Validate(path string, ov Overrides) (*Validation, error) {
	m, root, err := e.Load(path)
	if err != nil {
		return nil, err
	}
	order, mode, err := e.Settings(m, ov)
	if err != nil {
		return nil, err
	}
	if err := pipeline.Validate(root); err != nil {
		return nil, err
	}

	v := &Validation{
		Source:   m.Source,
		Name:     m.Name,
		Order:    order.String(),
		Rollback: mode.String(),
	}
	count(root, v)
	return v, nil
}

func count(r pipeline.Runnable, v *Validation) {
	switch r.Kind() {
	case pipeline.KindTask:
		v.Tasks++
	case pipeline.KindSequence:
		v.Sequences++
	case pipeline.KindSelector:
		v.Selectors++
	}
	for _, c := range r.Declared() {
		count(c, v)
	}
}
