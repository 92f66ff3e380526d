package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/pipewalk/internal/report"
)

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a pipewalk_run result"`
	Node  string `json:"node,omitempty" jsonschema:"id of a node in the run. When empty, the failing nodes are listed."`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	if params.Node == "" {
		failures := report.Failures(result)
		if len(failures) == 0 {
			return textResult(fmt.Sprintf("No failures in run %s (%s).", params.RunID, result.Outcome))
		}
		return textResult(formatFailures(result, failures))
	}

	matches := report.ByNode(result, params.Node)
	if len(matches) == 0 {
		return textResult(fmt.Sprintf("No node %q in run %s.", params.Node, params.RunID))
	}
	return textResult(formatNodes(result, matches))
}

func formatFailures(result *report.RunResult, failures []report.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s (%s)\n", result.ID, result.Outcome)
	fmt.Fprintln(&b)
	for _, m := range failures {
		fmt.Fprintf(&b, "%s [%s] %s: %s\n", strings.Join(m.Path, " / "), m.Node.Error.Kind, m.Node.Error.Title, m.Node.Error.Message)
	}
	return b.String()
}

func formatNodes(result *report.RunResult, matches []report.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s (%s)\n", result.ID, result.Outcome)
	for _, m := range matches {
		n := m.Node
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "%s: %s %s, %.4fs\n", strings.Join(m.Path, " / "), n.Kind, n.Outcome, n.Elapsed)
		if n.Return != "" {
			fmt.Fprintf(&b, "Return: %s\n", n.Return)
		}
		if n.RolledBack {
			fmt.Fprintln(&b, "Rolled back")
		}
		if n.RollbackError != "" {
			fmt.Fprintf(&b, "Rollback error: %s\n", n.RollbackError)
		}
		if !n.Leaf() {
			fmt.Fprintln(&b)
			report.WriteSummary(&b, &report.RunResult{
				ID:      result.ID,
				Outcome: n.Outcome,
				Elapsed: n.Elapsed,
				Root:    n,
			})
		} else if n.Error != nil {
			fmt.Fprintf(&b, "%s: %s\n", n.Error.Title, n.Error.Message)
		}
	}
	return b.String()
}
