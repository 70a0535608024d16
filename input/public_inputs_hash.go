package input

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/keylesszk/prover-service/circuit"
	"github.com/keylesszk/prover-service/poseidon"
)

// ephemeralPubkeyFrsLen is the number of scalars the epk packs into.
const ephemeralPubkeyFrsLen = 3

// MaxAudValueBytes caps the override aud value inside the identity
// commitment, matching the on-chain commitment scheme.
const MaxAudValueBytes = 120

// ComputeEphemeralPubkeyFrs packs the epk bytes into exactly three scalars
// plus a length scalar.
func ComputeEphemeralPubkeyFrs(v *VerifiedInput, maxCommittedEpkBytes int) ([ephemeralPubkeyFrsLen]fr.Element, fr.Element, error) {
	var frs [ephemeralPubkeyFrsLen]fr.Element

	packed, err := poseidon.PadAndPackBytesWithLen(v.Epk, maxCommittedEpkBytes)
	if err != nil {
		return frs, fr.Element{}, ClientErrorf("packing epk: %v", err)
	}
	if len(packed) != ephemeralPubkeyFrsLen+1 {
		return frs, fr.Element{}, ConfigErrorf(
			"epk packs into %d scalars, the circuit expects %d", len(packed)-1, ephemeralPubkeyFrsLen)
	}
	copy(frs[:], packed[:ephemeralPubkeyFrsLen])
	return frs, packed[ephemeralPubkeyFrsLen], nil
}

func computeIdcHash(cfg *circuit.Config, v *VerifiedInput) (fr.Element, error) {
	frs := []fr.Element{v.Pepper}

	privateAud, err := PrivateAudValue(v)
	if err != nil {
		return fr.Element{}, err
	}
	audHash, err := padAndHashConfigured(cfg, privateAud, "private_aud_value")
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, audHash)

	uidValHash, err := padAndHashConfigured(cfg, v.UidVal, "uid_value")
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, uidValHash)

	uidKeyHash, err := padAndHashConfigured(cfg, v.UidKey, "uid_name")
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, uidKeyHash)

	idc, err := poseidon.HashScalars(frs)
	if err != nil {
		return fr.Element{}, ServiceErrorf("hashing identity commitment: %v", err)
	}
	return idc, nil
}

// ComputePublicInputsHash folds every public input of the relation into one
// scalar. The scalar order is fixed by the circuit and the on-chain verifier.
func ComputePublicInputsHash(cfg *circuit.Config, v *VerifiedInput, maxCommittedEpkBytes int) (fr.Element, error) {
	epkFrs, epkLen, err := ComputeEphemeralPubkeyFrs(v, maxCommittedEpkBytes)
	if err != nil {
		return fr.Element{}, err
	}

	payload, err := v.PayloadDecoded()
	if err != nil {
		return fr.Element{}, ServiceErrorf("%v", err)
	}
	extraField, err := ParsedExtraFieldOrDefault(payload, v)
	if err != nil {
		return fr.Element{}, err
	}

	frs := append([]fr.Element{}, epkFrs[:]...)
	frs = append(frs, epkLen)

	idc, err := computeIdcHash(cfg, v)
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, idc)

	var expDate, expHorizon fr.Element
	expDate.SetUint64(v.ExpDateSecs)
	expHorizon.SetUint64(v.ExpHorizonSecs)
	frs = append(frs, expDate, expHorizon)

	issHash, err := padAndHashConfigured(cfg, v.Jwt.Payload.Iss, "iss_value")
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, issHash)

	var useExtraField fr.Element
	if v.UseExtraField() {
		useExtraField.SetOne()
	}
	frs = append(frs, useExtraField)

	extraFieldHash, err := padAndHashConfigured(cfg, extraField.WholeField, "extra_field")
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, extraFieldHash)

	headerHash, err := padAndHashConfigured(cfg, v.Jwt.Parts.HeaderWithDot(), "b64u_jwt_header_w_dot")
	if err != nil {
		return fr.Element{}, err
	}
	frs = append(frs, headerHash)

	pubkeyHash, err := v.Jwk.ToPoseidonScalar()
	if err != nil {
		return fr.Element{}, ServiceErrorf("hashing jwk modulus: %v", err)
	}
	frs = append(frs, pubkeyHash)

	overrideAudHash, err := poseidon.PadAndHashString(OverrideAudValue(v), MaxAudValueBytes)
	if err != nil {
		return fr.Element{}, ClientErrorf("hashing override aud: %v", err)
	}
	frs = append(frs, overrideAudHash)

	var useOverrideAud fr.Element
	if v.IdcAud != nil {
		useOverrideAud.SetOne()
	}
	frs = append(frs, useOverrideAud)

	hash, err := poseidon.HashScalars(frs)
	if err != nil {
		return fr.Element{}, ServiceErrorf("hashing public inputs: %v", err)
	}
	return hash, nil
}

func padAndHashConfigured(cfg *circuit.Config, s, configKey string) (fr.Element, error) {
	maxBytes, err := cfg.MaxLength(configKey)
	if err != nil {
		return fr.Element{}, ConfigErrorf("%v", err)
	}
	hash, err := poseidon.PadAndHashString(s, maxBytes)
	if err != nil {
		return fr.Element{}, ClientErrorf("hashing %s: %v", configKey, err)
	}
	return hash, nil
}
