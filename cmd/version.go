package main

import (
	"github.com/spf13/cobra"
)

// Overridden at build time via -ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// NewVersionCmd reports the build this prover binary was cut from.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Print prover build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("keyless-prover %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
