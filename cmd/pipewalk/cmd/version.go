package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deixis/pipewalk"
)

// NewVersionCmd returns the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the pipewalk version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), pipewalk.Version)
		},
	}
}
