// Package onchain mirrors the keyless account resources published on chain:
// the Groth16 verifying key and the keyless configuration that carries the
// training-wheels public key. A background watcher keeps a last-good snapshot
// of both so setup selection can compare against the live chain state.
package onchain

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Resource type tags as they appear in the fullnode REST API.
	Groth16VKResourceType = "0x1::keyless_account::Groth16VerificationKey"
	ConfigurationType     = "0x1::keyless_account::Configuration"
)

// Groth16VerificationKey is the on-chain verifying key resource. Point
// coordinates are hex strings of the compressed little-endian encoding.
type Groth16VerificationKey struct {
	Type string   `json:"type"`
	Data VKeyData `json:"data"`
}

// VKeyData holds the curve points of the on-chain verifying key.
type VKeyData struct {
	AlphaG1    string   `json:"alpha_g1"`
	BetaG2     string   `json:"beta_g2"`
	DeltaG2    string   `json:"delta_g2"`
	GammaABCG1 []string `json:"gamma_abc_g1"`
	GammaG2    string   `json:"gamma_g2"`
}

// Equal reports whether two on-chain verifying keys describe the same key.
func (d VKeyData) Equal(other VKeyData) bool {
	if d.AlphaG1 != other.AlphaG1 ||
		d.BetaG2 != other.BetaG2 ||
		d.DeltaG2 != other.DeltaG2 ||
		d.GammaG2 != other.GammaG2 {
		return false
	}
	if len(d.GammaABCG1) != len(other.GammaABCG1) {
		return false
	}
	for i := range d.GammaABCG1 {
		if d.GammaABCG1[i] != other.GammaABCG1[i] {
			return false
		}
	}
	return true
}

// KeylessConfiguration is the on-chain keyless configuration resource.
type KeylessConfiguration struct {
	Type string            `json:"type"`
	Data ConfigurationData `json:"data"`
}

// ConfigurationData holds the data fields of the configuration resource.
// max_exp_horizon_secs is a string on chain (a Move u64).
type ConfigurationData struct {
	MaxCommittedEpkBytes uint16               `json:"max_commited_epk_bytes"`
	MaxExpHorizonSecs    string               `json:"max_exp_horizon_secs"`
	MaxExtraFieldBytes   uint16               `json:"max_extra_field_bytes"`
	MaxJwtHeaderB64Bytes uint32               `json:"max_jwt_header_b64_bytes"`
	MaxIssValBytes       uint16               `json:"max_iss_val_bytes"`
	MaxSignaturesPerTxn  uint16               `json:"max_signatures_per_txn"`
	OverrideAudVals      []string             `json:"override_aud_vals"`
	TrainingWheelsPubkey TrainingWheelsPubkey `json:"training_wheels_pubkey"`
}

// TrainingWheelsPubkey wraps the Move Option<vector<u8>> representation: an
// empty vec means training wheels are disabled.
type TrainingWheelsPubkey struct {
	Vec []string `json:"vec"`
}

// TrainingWheelsPublicKey extracts the Ed25519 public key from the
// configuration, or reports that none is set.
func (c *KeylessConfiguration) TrainingWheelsPublicKey() (ed25519.PublicKey, bool, error) {
	vec := c.Data.TrainingWheelsPubkey.Vec
	if len(vec) == 0 {
		return nil, false, nil
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(vec[0], "0x"))
	if err != nil {
		return nil, false, fmt.Errorf("decoding training wheels pubkey: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, false, fmt.Errorf("training wheels pubkey is %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), true, nil
}

// ConfigurationFromTrainingWheelsKey builds a configuration resource carrying
// the given key, with the chain's default limits. Used by /config and tests.
func ConfigurationFromTrainingWheelsKey(pub ed25519.PublicKey) KeylessConfiguration {
	vec := []string{}
	if pub != nil {
		vec = append(vec, "0x"+hex.EncodeToString(pub))
	}
	return KeylessConfiguration{
		Type: ConfigurationType,
		Data: ConfigurationData{
			MaxCommittedEpkBytes: 93,
			MaxExpHorizonSecs:    "10000000",
			MaxExtraFieldBytes:   350,
			MaxJwtHeaderB64Bytes: 300,
			MaxIssValBytes:       120,
			MaxSignaturesPerTxn:  3,
			OverrideAudVals:      []string{},
			TrainingWheelsPubkey: TrainingWheelsPubkey{Vec: vec},
		},
	}
}
