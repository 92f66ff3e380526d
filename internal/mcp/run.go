package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/pipewalk/internal/logging"
	"github.com/deixis/pipewalk/internal/pipeline"
	"github.com/deixis/pipewalk/internal/workflow"
)

type runParams struct {
	Manifest string `json:"manifest,omitempty" jsonschema:"path to the pipeline manifest, relative to the workspace. Defaults to pipewalk.yaml."`
	Order    string `json:"order,omitempty" jsonschema:"traversal order: dfs or bfs. Overrides the manifest and settings file."`
	Rollback string `json:"rollback,omitempty" jsonschema:"rollback mode: backtrace, parent-chain or parent-pointer. Overrides the manifest and settings file."`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	ov := workflow.Overrides{Order: params.Order, Rollback: params.Rollback}
	out, err := h.engine.Run(h.withLogger(ctx), params.Manifest, ov)
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v", err))
	}
	return textResult(formatRun(out))
}

func formatRun(out *workflow.RunOutput) string {
	var b strings.Builder
	rr := out.Report

	status := "PASS"
	switch {
	case out.Result.Interrupted():
		status = "INTERRUPTED"
	case out.Result.Failed():
		status = "FAIL"
	}
	fmt.Fprintf(&b, "Status: %s\n", status)
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintf(&b, "Order: %s, rollback: %s\n", rr.Order, rr.Rollback)
	fmt.Fprintln(&b)

	_ = pipeline.Render(&b, out.Result, pipeline.RenderOptions{})

	if origin := out.Result.Origin(); origin != nil {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Failed at: %s %s\n", origin.Kind, origin.ID)
		if own := origin.Own(); own != nil {
			fmt.Fprintf(&b, "  %s: %s\n", own.Title(), own.Message())
		}
		// Result order, not rollback order.
		var rolled []string
		out.Result.Walk(func(r *pipeline.Result) {
			if r.RolledBack {
				rolled = append(rolled, r.ID)
			}
		})
		if len(rolled) > 0 {
			fmt.Fprintf(&b, "Rolled back: %s\n", strings.Join(rolled, ", "))
		}
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "Inspect with pipewalk_inspect(run_id=%q, node=%q).\n", rr.ID, origin.ID)
	}
	return b.String()
}

// withLogger attaches the handler's logger so pipeline logging reaches it.
func (h *handler) withLogger(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, h.log)
}
