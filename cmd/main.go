package main

import (
	"fmt"
	"os"
)

// keyless-prover - the ZK prover service for keyless accounts
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
