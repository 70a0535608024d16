package main

import (
	"github.com/keylesszk/prover-service/cmd/proverd"
	"github.com/spf13/cobra"
)

// Init the cmd
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "keyless-prover",
		Short: "Keyless ZK Prover Service",
		Long:  `Issues Groth16 proofs that an OIDC JWT satisfies the keyless account relation, without revealing the token.`,
	}

	rootCmd.AddCommand(
		proverd.NewServeCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}
