package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deixis/pipewalk/internal/pipeline"
	"github.com/deixis/pipewalk/internal/report"
	"github.com/deixis/pipewalk/internal/workflow"
)

type runOpts struct {
	order    string
	rollback string
	timeout  time.Duration
	json     bool
	summary  bool
}

var exampleForRunCmd = `
run the default manifest (pipewalk.yaml):
  pipewalk run

run a manifest breadth-first, rolling back only the open parents on failure:
  pipewalk run ci/release.yaml --order bfs --rollback parent-chain
`

// NewRunCmd returns the run command.
func NewRunCmd() *cobra.Command {
	opts := &runOpts{}
	runCmd := &cobra.Command{
		Use:     "run [manifest]",
		Short:   "run a pipeline manifest",
		Long:    "run executes every selected task of the manifest and prints the result tree. The exit status is 0 on success, 1 on failure, 2 for an invalid manifest and 130 when interrupted.",
		Example: exampleForRunCmd,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			return runManifest(cmd.Context(), path, opts)
		},
	}

	runCmd.Flags().StringVar(&opts.order, "order", "", "traversal order: dfs or bfs")
	runCmd.Flags().StringVar(&opts.rollback, "rollback", "", "rollback mode: backtrace, parent-chain or parent-pointer")
	runCmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "override configured per-command timeout (e.g. 5m)")
	runCmd.Flags().BoolVar(&opts.json, "json", false, "print the run report as JSON instead of the result tree")
	runCmd.Flags().BoolVar(&opts.summary, "summary", false, "print a table of leaf nodes after the result tree")
	return runCmd
}

func runManifest(ctx context.Context, path string, opts *runOpts) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(opts.timeout)
	if err != nil {
		return err
	}

	out, err := s.engine.Run(s.withLogger(ctx), path, workflow.Overrides{
		Order:    opts.order,
		Rollback: opts.rollback,
	})
	if err != nil {
		return &exitError{code: pipeline.ExitCode(nil, err), err: err}
	}

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Report); err != nil {
			return err
		}
	} else {
		if err := pipeline.Render(os.Stdout, out.Result, pipeline.RenderOptions{Color: useColor(os.Stdout)}); err != nil {
			return err
		}
		if opts.summary {
			report.WriteSummary(os.Stdout, out.Report)
		}
	}

	if code := pipeline.ExitCode(out.Result, nil); code != pipeline.ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}
