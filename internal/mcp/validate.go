package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/pipewalk/internal/workflow"
)

type validateParams struct {
	Manifest string `json:"manifest,omitempty" jsonschema:"path to the pipeline manifest, relative to the workspace. Defaults to pipewalk.yaml."`
}

func (h *handler) validateHandler(ctx context.Context, req *mcp.CallToolRequest, params validateParams) (*mcp.CallToolResult, any, error) {
	v, err := h.engine.Validate(params.Manifest, workflow.Overrides{})
	if err != nil {
		return errorResult(fmt.Sprintf("Status: INVALID\n\n%v", err))
	}

	var b strings.Builder
	fmt.Fprintln(&b, "Status: VALID")
	fmt.Fprintf(&b, "Manifest: %s\n", v.Source)
	if v.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", v.Name)
	}
	fmt.Fprintf(&b, "Order: %s, rollback: %s\n", v.Order, v.Rollback)
	fmt.Fprintf(&b, "Nodes: %d tasks, %d sequences, %d selectors\n", v.Tasks, v.Sequences, v.Selectors)
	return textResult(b.String())
}
