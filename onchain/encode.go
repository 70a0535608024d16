package onchain

import (
	"encoding/hex"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// The chain stores points in the arkworks compressed form: the x coordinate
// little-endian, with two flag bits in the top byte. Bit 7 marks the larger
// of the two y roots, bit 6 the point at infinity.
const (
	flagNegativeY = 0x80
	flagInfinity  = 0x40
)

// CompressG1 returns the 32-byte compressed hex encoding of a G1 point.
func CompressG1(p *curve.G1Affine) string {
	var out [32]byte
	if p.IsInfinity() {
		out[31] = flagInfinity
		return "0x" + hex.EncodeToString(out[:])
	}
	xb := p.X.Bytes()
	for i := 0; i < 32; i++ {
		out[i] = xb[31-i]
	}
	if p.Y.LexicographicallyLargest() {
		out[31] |= flagNegativeY
	}
	return "0x" + hex.EncodeToString(out[:])
}

// CompressG2 returns the 64-byte compressed hex encoding of a G2 point. The
// x coordinate serializes as c0 then c1, each little-endian.
func CompressG2(p *curve.G2Affine) string {
	var out [64]byte
	if p.IsInfinity() {
		out[63] = flagInfinity
		return "0x" + hex.EncodeToString(out[:])
	}
	a0 := p.X.A0.Bytes()
	a1 := p.X.A1.Bytes()
	for i := 0; i < 32; i++ {
		out[i] = a0[31-i]
		out[32+i] = a1[31-i]
	}
	if p.Y.LexicographicallyLargest() {
		out[63] |= flagNegativeY
	}
	return "0x" + hex.EncodeToString(out[:])
}

// FromVerifyingKey converts a local gnark verifying key into its on-chain
// resource representation, so it can be compared against the fetched one.
func FromVerifyingKey(vk *groth16_bn254.VerifyingKey) Groth16VerificationKey {
	abc := make([]string, len(vk.G1.K))
	for i := range vk.G1.K {
		abc[i] = CompressG1(&vk.G1.K[i])
	}
	return Groth16VerificationKey{
		Type: Groth16VKResourceType,
		Data: VKeyData{
			AlphaG1:    CompressG1(&vk.G1.Alpha),
			BetaG2:     CompressG2(&vk.G2.Beta),
			DeltaG2:    CompressG2(&vk.G2.Delta),
			GammaABCG1: abc,
			GammaG2:    CompressG2(&vk.G2.Gamma),
		},
	}
}
