package pipeline

import (
	"fmt"
	"io"
	"strings"
)

const (
	colorGreen  = 32
	colorRed    = 31
	colorYellow = 33
)

// RenderOptions controls Render.
type RenderOptions struct {
	Color bool
}

// Render writes one line per result node, depth-first, indented four spaces
// per level:
//
//	Sequence 1 : time: 0.0203 failed ✗
//	    Task "false" : time: 0.0021 return: exit status 1 failed ✗ (ExitError: [Errno 1] ...)
//
// The error is shown only on the node that recorded it.
func Render(w io.Writer, root *Result, opts RenderOptions) error {
	return walkResults(root, func(r *Result) error {
		_, err := io.WriteString(w, Line(r, opts)+"\n")
		return err
	})
}

// Line formats a single result node, including its indentation.
func Line(r *Result, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("    ", r.Depth))
	fmt.Fprintf(&b, "%s %s : time: %.4f", r.Kind, r.ID, r.Elapsed().Seconds())
	if r.ReturnValue != nil {
		fmt.Fprintf(&b, " return: %v", r.ReturnValue)
	}

	o := r.Outcome()
	status := o.String() + " " + o.Glyph()
	if opts.Color {
		status = fmt.Sprintf("\033[%dm%s\033[0m", outcomeColor(o), status)
	}
	b.WriteString(" " + status)

	if r.err != nil && r.err.Kind != ActionFailure {
		if msg := r.err.Message(); msg != "" {
			fmt.Fprintf(&b, " (%s: %s)", r.err.Title(), msg)
		} else {
			fmt.Fprintf(&b, " (%s)", r.err.Title())
		}
	}
	return b.String()
}

func outcomeColor(o Outcome) int {
	switch o {
	case Failed:
		return colorRed
	case Interrupted:
		return colorYellow
	}
	return colorGreen
}
