package input

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/keylesszk/prover-service/circuit"
)

// rsaLimbs covers 2048-bit RSA, the only size the circuit verifies.
const rsaLimbs = 32

// DeriveCircuitInputSignals assembles the complete padded signal assignment
// for a verified request, returning the public inputs hash alongside it. The
// hash's little-endian byte form is what the training wheels signature and
// the proof verification bind to.
func DeriveCircuitInputSignals(cfg *circuit.Config, v *VerifiedInput, maxCommittedEpkBytes int) (*circuit.Signals, fr.Element, error) {
	epkFrs, epkLen, err := ComputeEphemeralPubkeyFrs(v, maxCommittedEpkBytes)
	if err != nil {
		return nil, fr.Element{}, err
	}

	publicInputsHash, err := ComputePublicInputsHash(cfg, v, maxCommittedEpkBytes)
	if err != nil {
		return nil, fr.Element{}, err
	}

	unsignedJwt := []byte(v.Jwt.Parts.UnsignedUndecoded())
	paddedUnsignedJwt := circuit.WithShaPadding(unsignedJwt)
	payloadWithPadding, ok := circuit.PayloadWithPadding(paddedUnsignedJwt)
	if !ok {
		return nil, fr.Element{}, ServiceErrorf("padded jwt has no header separator")
	}

	modulusLimbs, err := v.Jwk.As64BitLimbs()
	if err != nil {
		return nil, fr.Element{}, ClientErrorf("%v", err)
	}

	b := circuit.NewSignalsBuilder().
		Bytes("b64u_jwt_no_sig_sha2_padded", paddedUnsignedJwt).
		Str("b64u_jwt_header_w_dot", v.Jwt.Parts.HeaderWithDot()).
		Bytes("b64u_jwt_payload_sha2_padded", payloadWithPadding).
		Str("b64u_jwt_payload", v.Jwt.Parts.PayloadUndecoded()).
		Usize("b64u_jwt_header_w_dot_len", len(v.Jwt.Parts.HeaderWithDot())).
		Usize("b64u_jwt_payload_sha2_padded_len", len(v.Jwt.Parts.PayloadUndecoded())).
		Usize("sha2_num_blocks", circuit.ShaNumBlocks(paddedUnsignedJwt)).
		Bytes("sha2_num_bits", circuit.ShaBitLen(unsignedJwt)).
		Bytes("sha2_padding", circuit.ShaPaddingWithoutLen(unsignedJwt)).
		Limbs("signature", v.Jwt.SignatureLimbs(rsaLimbs)).
		Limbs("pubkey_modulus", modulusLimbs).
		U64("exp_date", v.ExpDateSecs).
		U64("exp_horizon", v.ExpHorizonSecs).
		Frs("epk", epkFrs[:]).
		Fr("epk_len", epkLen).
		Fr("epk_blinder", v.EpkBlinder).
		Fr("pepper", v.Pepper).
		Bool("use_extra_field", v.UseExtraField())

	if cfg.HasInputSkipAudChecks {
		b.Bool("skip_aud_checks", v.SkipAudChecks)
	}

	b.Fr("public_inputs_hash", publicInputsHash)

	fieldSignals, err := FieldCheckSignals(v)
	if err != nil {
		return nil, fr.Element{}, err
	}
	if _, err := b.Merge(fieldSignals); err != nil {
		return nil, fr.Element{}, ServiceErrorf("%v", err)
	}

	padded, err := b.Pad(cfg)
	if err != nil {
		return nil, fr.Element{}, ConfigErrorf("padding signals: %v", err)
	}
	return padded, publicInputsHash, nil
}
