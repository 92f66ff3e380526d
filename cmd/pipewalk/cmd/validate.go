package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/pipewalk/internal/workflow"
)

// NewValidateCmd returns the validate command.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest]",
		Short: "check a pipeline manifest without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			}
			s, err := newSession(0)
			if err != nil {
				return err
			}
			v, err := s.engine.Validate(path, workflow.Overrides{})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: ok\n", v.Source)
			fmt.Fprintf(out, "  order %s, rollback %s\n", v.Order, v.Rollback)
			fmt.Fprintf(out, "  %d tasks, %d sequences, %d selectors\n", v.Tasks, v.Sequences, v.Selectors)
			return nil
		},
	}
}
