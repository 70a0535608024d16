package prover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Groth16Prover produces a proof from a serialized witness file.
type Groth16Prover interface {
	Prove(ctx context.Context, witnessPath string) (*RapidsnarkProof, error)
}

// Rapidsnark invokes an external rapidsnark prover binary:
//
//	prover <zkey> <witness> <proof.json> <public.json>
type Rapidsnark struct {
	BinaryPath string
	ZkeyPath   string
}

// Prove runs the prover over a witness file and returns the parsed proof.
func (r Rapidsnark) Prove(ctx context.Context, witnessPath string) (*RapidsnarkProof, error) {
	proofFile, err := os.CreateTemp("", "prover-proof-*.json")
	if err != nil {
		return nil, fmt.Errorf("creating proof temp file: %w", err)
	}
	proofFile.Close()
	defer os.Remove(proofFile.Name())

	publicFile, err := os.CreateTemp("", "prover-public-*.json")
	if err != nil {
		return nil, fmt.Errorf("creating public inputs temp file: %w", err)
	}
	publicFile.Close()
	defer os.Remove(publicFile.Name())

	cmd := exec.CommandContext(ctx, r.BinaryPath, r.ZkeyPath, witnessPath, proofFile.Name(), publicFile.Name())
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("rapidsnark prover failed: %w: %s", err, output)
	}

	proofJSON, err := os.ReadFile(proofFile.Name())
	if err != nil {
		return nil, fmt.Errorf("reading proof file: %w", err)
	}
	return ParseRapidsnarkProof(proofJSON)
}
