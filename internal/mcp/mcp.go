// Package mcp provides the pipewalk MCP server, registering the run,
// validate, inspect and workspace tools and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/deixis/pipewalk"
	"github.com/deixis/pipewalk/internal/config"
	"github.com/deixis/pipewalk/internal/logging"
	"github.com/deixis/pipewalk/internal/report"
	"github.com/deixis/pipewalk/internal/runner"
	"github.com/deixis/pipewalk/internal/workflow"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	engine *workflow.Engine
	runner *runner.Runner // retained for updateWorkspaceFromRoots
	store  report.Store
	log    logrus.FieldLogger
}

// NewServer creates an MCP server with all pipewalk tools registered.
func NewServer(cfg *config.Config, r *runner.Runner, store report.Store, workspace string, opts ...ServerOption) *mcp.Server {
	h := &handler{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Store:     store,
			Workspace: workspace,
			RepoRoot:  workspace, // updated via roots
		},
		runner: r,
		store:  store,
	}

	so := serverOptions{log: logging.Discard()}
	for _, o := range opts {
		o(&so)
	}
	h.log = so.log

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
		InitializedHandler: func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateWorkspaceFromRoots(ctx, req.Session)
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "pipewalk", Version: pipewalk.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "pipewalk_workspace",
		Description: "Summarise the workspace: settings file, effective run settings, and the pipeline manifests found.",
	}, h.workspaceHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "pipewalk_run",
		Description: `Run a pipeline manifest and return its result tree.

Tasks execute in the configured order (dfs or bfs). The first failing task stops the run
and triggers rollback of the nodes selected by the rollback mode. Results are stored for
drill-down via pipewalk_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "pipewalk_validate",
		Description: "Check that a pipeline manifest parses and builds into a valid tree, without running anything.",
	}, h.validateHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "pipewalk_inspect",
		Description: `Drill into the result of a pipewalk_run.

Use the run_id from the run output. Without a node, lists the nodes that failed.
With a node id, shows that node's subtree with timings and errors.`,
	}, h.inspectHandler)

	return s
}

// ServerOption configures the pipewalk MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	log logrus.FieldLogger
}

// WithLogger sets the logger used by tool handlers.
func WithLogger(l logrus.FieldLogger) ServerOption {
	return func(o *serverOptions) {
		o.log = l
	}
}

// updateWorkspaceFromRoots queries the client for MCP roots and updates the
// handler's engine, runner, and config if a valid root is returned.
// This is called during session initialization, before any tool calls.
func (h *handler) updateWorkspaceFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil || len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}
	workspace := u.Path

	loaded, err := config.Load(workspace)
	if err != nil {
		h.log.Warnf("ignoring root %s: %v", workspace, err)
		return
	}

	h.runner.Workspace = loaded.RepoRoot
	h.runner.Timeout = loaded.Config.Timeout()
	h.runner.MaxOutput = loaded.Config.MaxOutputBytes()

	h.engine.Config = loaded.Config
	h.engine.Workspace = workspace
	h.engine.RepoRoot = loaded.RepoRoot
	h.log.Debugf("workspace set to %s", workspace)
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
