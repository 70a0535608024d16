// Package input turns a prove request into the padded signal assignment the
// witness generator consumes. It validates the request against the JWT it
// carries, derives every circuit input signal, and computes the public inputs
// hash the proof commits to.
package input

import (
	"encoding/hex"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/keylesszk/prover-service/jwk"
	"github.com/keylesszk/prover-service/jwtparse"
	"github.com/keylesszk/prover-service/poseidon"
)

// RequestInput is the body of a prove request. Byte fields arrive hex
// encoded.
type RequestInput struct {
	JwtB64        string  `json:"jwt_b64"`
	EpkHex        string  `json:"epk"`
	EpkBlinderHex string  `json:"epk_blinder"`
	ExpDateSecs   uint64  `json:"exp_date_secs"`
	ExpHorizon    uint64  `json:"exp_horizon_secs"`
	PepperHex     string  `json:"pepper"`
	UidKey        string  `json:"uid_key"`
	ExtraField    *string `json:"extra_field,omitempty"`
	IdcAud        *string `json:"idc_aud,omitempty"`
	SkipAudChecks bool    `json:"skip_aud_checks,omitempty"`
}

// Epk returns the ephemeral public key bytes. The key is treated as opaque:
// the circuit commits to its bytes, not its curve structure.
func (r *RequestInput) Epk() ([]byte, error) {
	b, err := hex.DecodeString(r.EpkHex)
	if err != nil {
		return nil, ClientErrorf("decoding epk hex: %v", err)
	}
	if len(b) == 0 {
		return nil, ClientErrorf("epk must not be empty")
	}
	return b, nil
}

// EpkBlinderFr interprets the blinder bytes as a little-endian field element.
func (r *RequestInput) EpkBlinderFr() (fr.Element, error) {
	return frFromHexLE(r.EpkBlinderHex, "epk_blinder")
}

// PepperFr interprets the pepper bytes as a little-endian field element.
func (r *RequestInput) PepperFr() (fr.Element, error) {
	return frFromHexLE(r.PepperHex, "pepper")
}

func frFromHexLE(s, what string) (fr.Element, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fr.Element{}, ClientErrorf("decoding %s hex: %v", what, err)
	}
	return poseidon.FrFromLEBytes(b), nil
}

// VerifiedInput is a prove request that has passed every validation check.
// Only Validate constructs it.
type VerifiedInput struct {
	Jwt        *jwtparse.DecodedJWT
	Jwk        jwk.RSAKey
	Epk        []byte
	EpkBlinder fr.Element
	Pepper     fr.Element

	ExpDateSecs    uint64
	ExpHorizonSecs uint64

	UidKey string
	UidVal string

	ExtraField    *string
	IdcAud        *string
	SkipAudChecks bool
}

// UseExtraField reports whether the request asked to expose an extra claim.
func (v *VerifiedInput) UseExtraField() bool {
	return v.ExtraField != nil
}

// PayloadDecoded returns the decoded JWT payload as a string.
func (v *VerifiedInput) PayloadDecoded() (string, error) {
	b, err := v.Jwt.Parts.DecodePayload()
	if err != nil {
		return "", fmt.Errorf("decoding payload: %w", err)
	}
	return string(b), nil
}
