package input

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/keylesszk/prover-service/circuit"
	"github.com/keylesszk/prover-service/poseidon"
)

// ComputeNonce derives the nonce commitment the OIDC flow must have placed in
// the JWT: a Poseidon hash binding the ephemeral public key, its expiration
// date, and the blinder. Clients put its decimal form in the nonce claim.
func ComputeNonce(cfg *circuit.Config, epk []byte, expDateSecs uint64, blinder fr.Element) (fr.Element, error) {
	maxEpkScalars, err := cfg.MaxLength("epk")
	if err != nil {
		return fr.Element{}, ConfigErrorf("%v", err)
	}

	frs, err := poseidon.PadAndPackBytesWithLen(epk, maxEpkScalars*poseidon.BytesPackedPerScalar)
	if err != nil {
		return fr.Element{}, ClientErrorf("packing epk: %v", err)
	}

	var expDate fr.Element
	expDate.SetUint64(expDateSecs)
	frs = append(frs, expDate, blinder)

	nonce, err := poseidon.HashScalars(frs)
	if err != nil {
		return fr.Element{}, ServiceErrorf("hashing nonce scalars: %v", err)
	}
	return nonce, nil
}
