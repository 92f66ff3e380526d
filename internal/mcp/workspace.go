package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/pipewalk/internal/config"
	"github.com/deixis/pipewalk/internal/manifest"
	"github.com/deixis/pipewalk/internal/report"
)

type workspaceParams struct{}

func (h *handler) workspaceHandler(ctx context.Context, req *sdkmcp.CallToolRequest, _ workspaceParams) (*sdkmcp.CallToolResult, any, error) {
	var b strings.Builder
	e := h.engine

	fmt.Fprintf(&b, "Workspace: %s\n", e.Workspace)
	settings := filepath.Join(e.RepoRoot, config.FileName)
	if _, err := os.Stat(settings); err == nil {
		fmt.Fprintf(&b, "Settings: %s\n", settings)
	} else {
		fmt.Fprintln(&b, "Settings: (defaults)")
	}

	cfg := e.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	order, _ := cfg.TraversalOrder()
	mode, _ := cfg.RollbackMode()
	fmt.Fprintf(&b, "Order: %s, rollback: %s\n", order, mode)
	if t := cfg.Timeout(); t > 0 {
		fmt.Fprintf(&b, "Command timeout: %s\n", t)
	}
	fmt.Fprintln(&b)

	if recent, ok := h.store.(interface{ Recent() []*report.RunResult }); ok {
		if runs := recent.Recent(); len(runs) > 0 {
			fmt.Fprintf(&b, "Recent runs (%d):\n", len(runs))
			for _, rr := range runs {
				fmt.Fprintf(&b, "  %s %s %s %.4fs\n", rr.ID, filepath.Base(rr.Manifest), rr.Outcome, rr.Elapsed)
			}
			fmt.Fprintln(&b)
		}
	}

	manifests, err := findManifests(e.Workspace)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to list manifests: %v", err))
	}
	if len(manifests) == 0 {
		fmt.Fprintln(&b, "Manifests: none found")
		return textResult(b.String())
	}
	fmt.Fprintf(&b, "Manifests (%d):\n", len(manifests))
	for _, m := range manifests {
		rel, err := filepath.Rel(e.Workspace, m.Source)
		if err != nil {
			rel = m.Source
		}
		if m.Name != "" {
			fmt.Fprintf(&b, "  %s (%s)\n", rel, m.Name)
		} else {
			fmt.Fprintf(&b, "  %s\n", rel)
		}
	}
	return textResult(b.String())
}

// findManifests returns the YAML files directly under dir that parse as
// pipeline manifests. Files that fail to parse are skipped.
func findManifests(dir string) ([]*manifest.Manifest, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var out []*manifest.Manifest
	for _, p := range paths {
		if filepath.Base(p) == config.FileName {
			continue
		}
		m, err := manifest.Load(p)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
