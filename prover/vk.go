// Package prover runs the proving pipeline: signal derivation feeds an
// external witness generator, a rapidsnark prover turns the witness into a
// Groth16 proof, and the proof is re-verified locally before it leaves the
// service.
package prover

import (
	"fmt"
	"math/big"
	"os"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"gopkg.in/yaml.v3"
)

// RawVK is the verifying key as circom exports it: decimal projective
// coordinates in YAML.
type RawVK struct {
	VkAlpha1 []string   `yaml:"vk_alpha_1"`
	VkBeta2  [][]string `yaml:"vk_beta_2"`
	VkGamma2 [][]string `yaml:"vk_gamma_2"`
	VkDelta2 [][]string `yaml:"vk_delta_2"`
	IC       [][]string `yaml:"IC"`
}

// LoadRawVK reads a circom verifying key YAML file.
func LoadRawVK(path string) (*RawVK, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vk file: %w", err)
	}
	var raw RawVK
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parsing vk yaml %s: %w", path, err)
	}
	return &raw, nil
}

// ToVerifyingKey converts the circom export into a gnark verifying key with
// its pairing precomputation done.
func (raw *RawVK) ToVerifyingKey() (*groth16_bn254.VerifyingKey, error) {
	var vk groth16_bn254.VerifyingKey

	alpha, err := g1FromProjectiveStrings(raw.VkAlpha1)
	if err != nil {
		return nil, fmt.Errorf("vk_alpha_1: %w", err)
	}
	vk.G1.Alpha = alpha

	beta, err := g2FromProjectiveStrings(raw.VkBeta2)
	if err != nil {
		return nil, fmt.Errorf("vk_beta_2: %w", err)
	}
	vk.G2.Beta = beta

	gamma, err := g2FromProjectiveStrings(raw.VkGamma2)
	if err != nil {
		return nil, fmt.Errorf("vk_gamma_2: %w", err)
	}
	vk.G2.Gamma = gamma

	delta, err := g2FromProjectiveStrings(raw.VkDelta2)
	if err != nil {
		return nil, fmt.Errorf("vk_delta_2: %w", err)
	}
	vk.G2.Delta = delta

	if len(raw.IC) == 0 {
		return nil, fmt.Errorf("vk has no IC points")
	}
	vk.G1.K = make([]curve.G1Affine, len(raw.IC))
	for i, p := range raw.IC {
		point, err := g1FromProjectiveStrings(p)
		if err != nil {
			return nil, fmt.Errorf("IC[%d]: %w", i, err)
		}
		vk.G1.K[i] = point
	}

	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("precomputing vk pairings: %w", err)
	}
	return &vk, nil
}

// LoadVerifyingKey reads and converts a circom verifying key YAML file.
func LoadVerifyingKey(path string) (*groth16_bn254.VerifyingKey, error) {
	raw, err := LoadRawVK(path)
	if err != nil {
		return nil, err
	}
	return raw.ToVerifyingKey()
}

// g1FromProjectiveStrings parses a circom G1 point. Circom emits projective
// coordinates with z normalized to 1, so only x and y are consumed.
func g1FromProjectiveStrings(coords []string) (curve.G1Affine, error) {
	var p curve.G1Affine
	if len(coords) < 2 {
		return p, fmt.Errorf("g1 point needs at least 2 coordinates, got %d", len(coords))
	}
	if len(coords) == 3 && coords[2] != "1" {
		return p, fmt.Errorf("g1 point is not normalized (z=%s)", coords[2])
	}
	x, err := decimalToBig(coords[0])
	if err != nil {
		return p, err
	}
	y, err := decimalToBig(coords[1])
	if err != nil {
		return p, err
	}
	p.X.SetBigInt(x)
	p.Y.SetBigInt(y)
	if !p.IsOnCurve() {
		return p, fmt.Errorf("g1 point is not on the curve")
	}
	return p, nil
}

// g2FromProjectiveStrings parses a circom G2 point given as coordinate pairs
// [c0, c1] per Fq2 element.
func g2FromProjectiveStrings(coords [][]string) (curve.G2Affine, error) {
	var p curve.G2Affine
	if len(coords) < 2 {
		return p, fmt.Errorf("g2 point needs at least 2 coordinate pairs, got %d", len(coords))
	}
	for i := 0; i < 2; i++ {
		if len(coords[i]) != 2 {
			return p, fmt.Errorf("g2 coordinate %d needs 2 components, got %d", i, len(coords[i]))
		}
	}
	if len(coords) == 3 && (coords[2][0] != "1" || coords[2][1] != "0") {
		return p, fmt.Errorf("g2 point is not normalized")
	}

	xc0, err := decimalToBig(coords[0][0])
	if err != nil {
		return p, err
	}
	xc1, err := decimalToBig(coords[0][1])
	if err != nil {
		return p, err
	}
	yc0, err := decimalToBig(coords[1][0])
	if err != nil {
		return p, err
	}
	yc1, err := decimalToBig(coords[1][1])
	if err != nil {
		return p, err
	}
	p.X.A0.SetBigInt(xc0)
	p.X.A1.SetBigInt(xc1)
	p.Y.A0.SetBigInt(yc0)
	p.Y.A1.SetBigInt(yc1)
	if !p.IsOnCurve() {
		return p, fmt.Errorf("g2 point is not on the curve")
	}
	return p, nil
}

func decimalToBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal coordinate %q", s)
	}
	return n, nil
}
