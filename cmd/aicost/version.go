package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/aicost/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Skip settings loading so version works without a valid config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}
