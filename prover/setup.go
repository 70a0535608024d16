package prover

import (
	"fmt"
	"sync"

	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/keylesszk/prover-service/circuit"
)

// Setup bundles everything needed to prove under one circuit build: its
// config, verifying key, witness generator, and zkey. The prover binary is
// memory-hungry, so proving under one setup is serialized.
type Setup struct {
	Name          string
	CircuitConfig *circuit.Config
	VK            *groth16_bn254.VerifyingKey
	WitnessGen    WitnessGen
	Prover        Groth16Prover

	proveMu sync.Mutex
}

// SetupPaths locates one circuit setup on disk.
type SetupPaths struct {
	Name              string
	CircuitConfigPath string
	VKPath            string
	ZkeyPath          string
	ProverBinary      string
	WitnessGenBinary  string
	WitnessGenJs      string
	WitnessGenWasm    string
}

// LoadSetup reads a circuit setup from its on-disk layout.
func LoadSetup(paths SetupPaths) (*Setup, error) {
	cfg, err := circuit.LoadConfig(paths.CircuitConfigPath)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", paths.Name, err)
	}
	vk, err := LoadVerifyingKey(paths.VKPath)
	if err != nil {
		return nil, fmt.Errorf("setup %s: %w", paths.Name, err)
	}
	return &Setup{
		Name:          paths.Name,
		CircuitConfig: cfg,
		VK:            vk,
		WitnessGen: WitnessGen{
			BinaryPath: paths.WitnessGenBinary,
			JsPath:     paths.WitnessGenJs,
			WasmPath:   paths.WitnessGenWasm,
		},
		Prover: Rapidsnark{
			BinaryPath: paths.ProverBinary,
			ZkeyPath:   paths.ZkeyPath,
		},
	}, nil
}

// VKEqual reports whether two verifying keys describe the same circuit
// build.
func VKEqual(a, b *groth16_bn254.VerifyingKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.G1.Alpha.Equal(&b.G1.Alpha) {
		return false
	}
	if !a.G2.Beta.Equal(&b.G2.Beta) || !a.G2.Gamma.Equal(&b.G2.Gamma) || !a.G2.Delta.Equal(&b.G2.Delta) {
		return false
	}
	if len(a.G1.K) != len(b.G1.K) {
		return false
	}
	for i := range a.G1.K {
		if !a.G1.K[i].Equal(&b.G1.K[i]) {
			return false
		}
	}
	return true
}

// SelectSetup picks which circuit setup serves traffic: the candidate setup
// is used only when its verifying key matches the one currently deployed
// on-chain, otherwise the default setup stays active.
func SelectSetup(defaultSetup, candidate *Setup, onchainVK *groth16_bn254.VerifyingKey) *Setup {
	if candidate != nil && onchainVK != nil && VKEqual(candidate.VK, onchainVK) {
		return candidate
	}
	return defaultSetup
}
