package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"log/slog"

	"github.com/keylesszk/prover-service/input"
	"github.com/keylesszk/prover-service/onchain"
	"github.com/keylesszk/prover-service/prover"
)

// State holds everything a running service proves with: the default setup's
// pipeline, an optional candidate pipeline, and the on-chain watcher that
// decides between them.
type State struct {
	validator *input.Validator

	defaultPipeline   *prover.Pipeline
	candidatePipeline *prover.Pipeline

	defaultVK   onchain.Groth16VerificationKey
	candidateVK onchain.Groth16VerificationKey

	watcher *onchain.Watcher
	logger  *slog.Logger

	// twPublicKey is the key signatures are issued under; set with
	// SetTrainingWheelsKey to enable the on-chain key check.
	twPublicKey ed25519.PublicKey
}

func NewState(validator *input.Validator, defaultPipeline, candidatePipeline *prover.Pipeline, watcher *onchain.Watcher, logger *slog.Logger) *State {
	s := &State{
		validator:         validator,
		defaultPipeline:   defaultPipeline,
		candidatePipeline: candidatePipeline,
		defaultVK:         onchain.FromVerifyingKey(defaultPipeline.Setup().VK),
		watcher:           watcher,
		logger:            logger,
	}
	if candidatePipeline != nil {
		s.candidateVK = onchain.FromVerifyingKey(candidatePipeline.Setup().VK)
	}
	return s
}

// Validate checks a prove request against the default setup's circuit
// parameters and the cached JWKs.
func (s *State) Validate(ctx context.Context, req *input.RequestInput) (*input.VerifiedInput, error) {
	return s.validator.Validate(ctx, req)
}

// SetTrainingWheelsKey records the local signing key so proofs can be
// checked against the chain's expected training wheels key.
func (s *State) SetTrainingWheelsKey(pub ed25519.PublicKey) {
	s.twPublicKey = pub
}

// Prove runs the request through the currently selected pipeline.
func (s *State) Prove(ctx context.Context, v *input.VerifiedInput) (*prover.Response, error) {
	s.checkTrainingWheelsKey()
	return s.selectPipeline().Prove(ctx, v)
}

// checkTrainingWheelsKey warns when the chain expects a different training
// wheels key than the one this deployment signs with. Signatures under the
// wrong key are rejected on chain, so the mismatch is surfaced loudly.
func (s *State) checkTrainingWheelsKey() {
	if s.watcher == nil || s.twPublicKey == nil {
		return
	}
	cfg := s.watcher.Configuration()
	if cfg == nil {
		return
	}
	chainKey, ok, err := cfg.TrainingWheelsPublicKey()
	if err != nil {
		s.logger.Warn("could not read on-chain training wheels key", "error", err)
		return
	}
	if ok && !bytes.Equal(chainKey, s.twPublicKey) {
		s.logger.Warn("on-chain training wheels key differs from local signing key")
	}
}

// CurrentVK returns the verifying key requests are currently proven under.
func (s *State) CurrentVK() onchain.Groth16VerificationKey {
	if s.selectPipeline() == s.candidatePipeline {
		return s.candidateVK
	}
	return s.defaultVK
}

// selectPipeline picks the candidate setup only when the chain has switched
// to its verifying key; until then every request proves under the default.
func (s *State) selectPipeline() *prover.Pipeline {
	if s.candidatePipeline == nil || s.watcher == nil {
		return s.defaultPipeline
	}
	chainVK := s.watcher.VerificationKey()
	if chainVK != nil && chainVK.Data.Equal(s.candidateVK.Data) {
		s.logger.Debug("proving under candidate setup",
			"setup", s.candidatePipeline.Setup().Name)
		return s.candidatePipeline
	}
	return s.defaultPipeline
}
