// Package workflow provides the execution engine behind pipewalk's run and
// validate operations. It ties manifests, settings, the command runner and
// the report store together, and is consumed by both the MCP server and the
// CLI commands.
package workflow

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/deixis/pipewalk/internal/config"
	"github.com/deixis/pipewalk/internal/manifest"
	"github.com/deixis/pipewalk/internal/pipeline"
	"github.com/deixis/pipewalk/internal/report"
	"github.com/deixis/pipewalk/internal/traverse"
)

// DefaultManifests are tried, in order, when no manifest path is given.
var DefaultManifests = []string{"pipewalk.yaml", "pipewalk.yml"}

// Engine holds shared dependencies for all workflow operations.
type Engine struct {
	Config    *config.Config
	Runner    pipeline.CommandRunner
	Store     report.Store // optional; runs are not persisted when nil
	Workspace string       // cwd; relative manifest paths resolve from here
	RepoRoot  string       // directory holding the settings file
}

// Overrides are run settings that take precedence over both the manifest
// and the settings file. Empty fields are ignored.
type Overrides struct {
	Order    string
	Rollback string
}

// ResolveManifest turns a manifest argument into a path. Relative paths
// resolve from the workspace. An empty argument looks for one of
// DefaultManifests in the workspace, then in the repo root.
func (e *Engine) ResolveManifest(path string) (string, error) {
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(e.Workspace, path)
		}
		return filepath.Clean(path), nil
	}

	dirs := []string{e.Workspace}
	if e.RepoRoot != "" && e.RepoRoot != e.Workspace {
		dirs = append(dirs, e.RepoRoot)
	}
	for _, dir := range dirs {
		for _, name := range DefaultManifests {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("checking %s: %w", candidate, err)
			}
		}
	}
	return "", fmt.Errorf("no manifest given and none of %s found", strings.Join(DefaultManifests, ", "))
}

// Load resolves, parses and builds the manifest at path.
func (e *Engine) Load(path string) (*manifest.Manifest, pipeline.Runnable, error) {
	resolved, err := e.ResolveManifest(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.Load(resolved)
	if err != nil {
		return nil, nil, err
	}
	root, err := m.Build()
	if err != nil {
		return nil, nil, err
	}
	return m, root, nil
}

// Settings picks the traversal order and rollback mode for a run: overrides
// first, then the manifest, then the settings file.
func (e *Engine) Settings(m *manifest.Manifest, ov Overrides) (traverse.Order, traverse.RollbackMode, error) {
	order, mode, err := m.Settings()
	if err != nil {
		return 0, 0, err
	}

	cfg := e.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	if m.Order == "" {
		if order, err = cfg.TraversalOrder(); err != nil {
			return 0, 0, &pipeline.StructuralError{Err: err}
		}
	}
	if m.Rollback == "" {
		if mode, err = cfg.RollbackMode(); err != nil {
			return 0, 0, &pipeline.StructuralError{Err: err}
		}
	}

	if ov.Order != "" {
		if order, err = traverse.ParseOrder(ov.Order); err != nil {
			return 0, 0, &pipeline.StructuralError{Err: err}
		}
	}
	if ov.Rollback != "" {
		if mode, err = traverse.ParseRollbackMode(ov.Rollback); err != nil {
			return 0, 0, &pipeline.StructuralError{Err: err}
		}
	}
	return order, mode, nil
}
