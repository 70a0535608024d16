package prover

import (
	"encoding/json"
	"fmt"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// RapidsnarkProof is the JSON a rapidsnark prover writes: decimal projective
// coordinates for the three proof points.
type RapidsnarkProof struct {
	PiA [3]string    `json:"pi_a"`
	PiB [3][2]string `json:"pi_b"`
	PiC [3]string    `json:"pi_c"`
}

// ParseRapidsnarkProof decodes a rapidsnark proof JSON document.
func ParseRapidsnarkProof(b []byte) (*RapidsnarkProof, error) {
	var p RapidsnarkProof
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parsing rapidsnark proof json: %w", err)
	}
	return &p, nil
}

// ToGroth16Proof converts the rapidsnark output into a gnark proof.
func (p *RapidsnarkProof) ToGroth16Proof() (*groth16_bn254.Proof, error) {
	ar, err := g1FromProjectiveStrings(p.PiA[:])
	if err != nil {
		return nil, fmt.Errorf("pi_a: %w", err)
	}
	bs, err := g2FromProjectiveStrings([][]string{p.PiB[0][:], p.PiB[1][:], p.PiB[2][:]})
	if err != nil {
		return nil, fmt.Errorf("pi_b: %w", err)
	}
	krs, err := g1FromProjectiveStrings(p.PiC[:])
	if err != nil {
		return nil, fmt.Errorf("pi_c: %w", err)
	}

	return &groth16_bn254.Proof{Ar: ar, Bs: bs, Krs: krs}, nil
}

// ProofBytes is the canonical 256-byte proof encoding the training wheels
// signature covers: A then B then C, big-endian coordinates, G2 components
// c0 before c1.
func ProofBytes(proof *groth16_bn254.Proof) [256]byte {
	var out [256]byte
	writeG1(out[0:64], &proof.Ar)
	writeG2(out[64:192], &proof.Bs)
	writeG1(out[192:256], &proof.Krs)
	return out
}

func writeG1(dst []byte, p *curve.G1Affine) {
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(dst[0:32], x[:])
	copy(dst[32:64], y[:])
}

func writeG2(dst []byte, p *curve.G2Affine) {
	xa0 := p.X.A0.Bytes()
	xa1 := p.X.A1.Bytes()
	ya0 := p.Y.A0.Bytes()
	ya1 := p.Y.A1.Bytes()
	copy(dst[0:32], xa0[:])
	copy(dst[32:64], xa1[:])
	copy(dst[64:96], ya0[:])
	copy(dst[96:128], ya1[:])
}

// VerifyProof checks the proof against the verifying key for the given
// public inputs hash.
func VerifyProof(proof *groth16_bn254.Proof, vk *groth16_bn254.VerifyingKey, publicInputsHash fr.Element) error {
	return groth16_bn254.Verify(proof, vk, fr.Vector{publicInputsHash})
}
