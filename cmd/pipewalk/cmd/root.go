// Package cmd holds the pipewalk command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/deixis/pipewalk/internal/config"
	"github.com/deixis/pipewalk/internal/logging"
	"github.com/deixis/pipewalk/internal/pipeline"
	"github.com/deixis/pipewalk/internal/report"
	"github.com/deixis/pipewalk/internal/runner"
	"github.com/deixis/pipewalk/internal/workflow"
)

type rootOpts struct {
	logLevel  string
	logFormat string
	colorMode string
}

var rootOpt rootOpts

const (
	colorModeAuto   = "auto"
	colorModeNever  = "never"
	colorModeAlways = "always"
)

var supportedColorModes = []string{
	colorModeAuto,
	colorModeNever,
	colorModeAlways,
}

var longRootCmdDescription = `pipewalk runs build pipelines described in a YAML manifest as a tree of
tasks, sequences and selectors. The first failing task stops the run and
rolls back the nodes chosen by the rollback mode.
`

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "pipewalk",
	Short:         "Run build pipelines as trees of tasks with rollback.",
	Long:          longRootCmdDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError ends the process with a specific status after its message, if
// any, has been logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			logrus.Error(ee.err)
		}
		os.Exit(ee.code)
	}
	logrus.Error(err)
	var se *pipeline.StructuralError
	if errors.As(err, &se) {
		os.Exit(pipeline.ExitStructural)
	}
	os.Exit(pipeline.ExitFailure)
}

func init() {
	rootCmd.AddCommand(NewRunCmd(), NewValidateCmd(), NewMCPCmd(), NewVersionCmd())

	rootCmd.PersistentFlags().StringVar(&rootOpt.logLevel, "log-level", "", "log level: debug, info, warn or error (default from settings, else info)")
	rootCmd.PersistentFlags().StringVar(&rootOpt.logFormat, "log-format", "", "log format: text or json (default from settings, else text)")
	rootCmd.PersistentFlags().StringVar(&rootOpt.colorMode, "color", colorModeAuto, fmt.Sprintf("set the color mode, the possible values can be %v", supportedColorModes))
	rootCmd.DisableAutoGenTag = true
}

// useColor reports whether output written to f should be colored.
func useColor(f *os.File) bool {
	switch rootOpt.colorMode {
	case colorModeAlways:
		return true
	case colorModeNever:
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// session is everything a command needs to load and run manifests from the
// current directory.
type session struct {
	engine *workflow.Engine
	runner *runner.Runner
	log    *logrus.Logger
}

// newSession loads the settings file, configures the logger and builds the
// engine. A non-zero timeout overrides the configured one.
func newSession(timeout time.Duration) (*session, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining workspace: %w", err)
	}

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, &pipeline.StructuralError{Err: fmt.Errorf("loading settings: %w", err)}
	}
	cfg := loaded.Config

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = cfg.Timeout()
	}
	r := &runner.Runner{
		Workspace: loaded.RepoRoot,
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
	}

	return &session{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Store:     report.NewLRUStore(cfg.ReportCache(), report.NewDiskStore(cfg.Reports.Dir)),
			Workspace: workspace,
			RepoRoot:  loaded.RepoRoot,
		},
		runner: r,
		log:    log,
	}, nil
}

// newLogger builds the process logger from flags and settings, and makes it
// the logrus standard logger too so Execute reports through it.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	level, format := rootOpt.logLevel, rootOpt.logFormat
	if level == "" {
		level = cfg.LogLevel()
	}
	if format == "" {
		format = cfg.LogFormat()
	}
	log, err := logging.New(logging.Options{
		Level:  level,
		Format: format,
		Color:  useColor(os.Stderr),
	})
	if err != nil {
		return nil, err
	}
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)
	return log, nil
}

// withLogger returns ctx carrying the session logger.
func (s *session) withLogger(ctx context.Context) context.Context {
	return logging.WithLogger(ctx, s.log)
}
