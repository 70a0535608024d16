package prover

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/keylesszk/prover-service/circuit"
)

// WitnessGen describes how to run the external witness generator for one
// circuit setup. When BinaryPath is set the native generator is used,
// otherwise the wasm generator runs under node.
type WitnessGen struct {
	BinaryPath string
	JsPath     string
	WasmPath   string
}

func (w WitnessGen) command(ctx context.Context, inputPath, witnessPath string) *exec.Cmd {
	if w.BinaryPath != "" {
		return exec.CommandContext(ctx, w.BinaryPath, inputPath, witnessPath)
	}
	return exec.CommandContext(ctx, "node", w.JsPath, w.WasmPath, inputPath, witnessPath)
}

// Generate runs the witness generator over the padded signals and returns
// the path of the witness file. The caller owns the file and must remove it.
func (w WitnessGen) Generate(ctx context.Context, signals *circuit.Signals) (string, error) {
	inputJSON, err := signals.CanonicalJSON()
	if err != nil {
		return "", fmt.Errorf("serializing circuit input signals: %w", err)
	}

	inputFile, err := os.CreateTemp("", "prover-input-*.json")
	if err != nil {
		return "", fmt.Errorf("creating input temp file: %w", err)
	}
	defer os.Remove(inputFile.Name())
	if _, err := inputFile.Write(inputJSON); err != nil {
		inputFile.Close()
		return "", fmt.Errorf("writing circuit input signals: %w", err)
	}
	if err := inputFile.Close(); err != nil {
		return "", fmt.Errorf("closing input temp file: %w", err)
	}

	witnessFile, err := os.CreateTemp("", "prover-witness-*.wtns")
	if err != nil {
		return "", fmt.Errorf("creating witness temp file: %w", err)
	}
	witnessFile.Close()

	cmd := w.command(ctx, inputFile.Name(), witnessFile.Name())
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(witnessFile.Name())
		return "", fmt.Errorf("witness generation failed: %w: %s", err, output)
	}
	return witnessFile.Name(), nil
}
