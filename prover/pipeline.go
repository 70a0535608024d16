package prover

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"

	"github.com/keylesszk/prover-service/input"
	"github.com/keylesszk/prover-service/metrics"
	"github.com/keylesszk/prover-service/trainingwheels"
)

// proveTries bounds the prove-then-verify retries. The external prover very
// rarely emits a proof that fails local verification; verification is
// deterministic, so only a fresh proof can recover from that.
const proveTries = 3

// Response is the successful prove response body.
type Response struct {
	Proof                   RapidsnarkProof `json:"proof"`
	PublicInputsHash        string          `json:"public_inputs_hash"`
	TrainingWheelsSignature string          `json:"training_wheels_signature"`
}

// Pipeline turns verified inputs into signed, locally verified proofs.
type Pipeline struct {
	setup                *Setup
	trainingWheels       *trainingwheels.KeyPair
	maxCommittedEpkBytes int
	logger               *slog.Logger
	metrics              *metrics.Metrics
}

func NewPipeline(setup *Setup, tw *trainingwheels.KeyPair, maxCommittedEpkBytes int, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		setup:                setup,
		trainingWheels:       tw,
		maxCommittedEpkBytes: maxCommittedEpkBytes,
		logger:               logger,
	}
}

// WithMetrics attaches timing collectors to the pipeline.
func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Setup exposes the active circuit setup.
func (p *Pipeline) Setup() *Setup {
	return p.setup
}

// Prove runs the full pipeline for one verified request. The returned
// response carries a proof that has been verified locally and a training
// wheels signature that has been checked against our own public key.
func (p *Pipeline) Prove(ctx context.Context, v *input.VerifiedInput) (*Response, error) {
	signals, publicInputsHash, err := input.DeriveCircuitInputSignals(p.setup.CircuitConfig, v, p.maxCommittedEpkBytes)
	if err != nil {
		return nil, err
	}

	witnessStart := time.Now()
	witnessPath, err := p.setup.WitnessGen.Generate(ctx, signals)
	if err != nil {
		return nil, input.ServiceErrorf("generating witness: %v", err)
	}
	defer os.Remove(witnessPath)
	if p.metrics != nil {
		p.metrics.WitnessGenTimeSecs.Observe(time.Since(witnessStart).Seconds())
	}

	proveStart := time.Now()
	rapidsnarkProof, proof, err := p.proveAndVerify(ctx, witnessPath, publicInputsHash)
	if err != nil {
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.Groth16TimeSecs.Observe(time.Since(proveStart).Seconds())
	}

	proofBytes := ProofBytes(proof)
	pihBytes := frLEBytes(publicInputsHash)
	signature := p.trainingWheels.Sign(proofBytes[:], pihBytes)

	// The signature is checked before it is returned, for the same reason
	// the proof is.
	if err := trainingwheels.Verify(p.trainingWheels.PublicKey(), proofBytes[:], pihBytes, signature); err != nil {
		return nil, input.ServiceErrorf("self-check of training wheels signature failed: %v", err)
	}

	p.logger.Info("proof issued",
		"setup", p.setup.Name,
		"public_inputs_hash", hex.EncodeToString(pihBytes[:]))

	return &Response{
		Proof:                   *rapidsnarkProof,
		PublicInputsHash:        hex.EncodeToString(pihBytes[:]),
		TrainingWheelsSignature: hex.EncodeToString(signature),
	}, nil
}

// proveAndVerify generates a proof and checks it locally. Only locally
// verified proofs leave the service; on a failed check the proof is
// regenerated from scratch rather than re-checked.
func (p *Pipeline) proveAndVerify(ctx context.Context, witnessPath string, publicInputsHash fr.Element) (*RapidsnarkProof, *groth16_bn254.Proof, error) {
	var (
		rapidsnarkProof *RapidsnarkProof
		proof           *groth16_bn254.Proof
	)
	err := Attempt(proveTries, func() error {
		var err error
		rapidsnarkProof, err = p.proveSerialized(ctx, witnessPath)
		if err != nil {
			return fmt.Errorf("generating proof: %w", err)
		}
		proof, err = rapidsnarkProof.ToGroth16Proof()
		if err != nil {
			return fmt.Errorf("decoding proof: %w", err)
		}
		return VerifyProof(proof, p.setup.VK, publicInputsHash)
	})
	if err != nil {
		return nil, nil, input.ServiceErrorf("proving failed: %v", err)
	}
	return rapidsnarkProof, proof, nil
}

func (p *Pipeline) proveSerialized(ctx context.Context, witnessPath string) (*RapidsnarkProof, error) {
	p.setup.proveMu.Lock()
	defer p.setup.proveMu.Unlock()
	return p.setup.Prover.Prove(ctx, witnessPath)
}

// frLEBytes returns the little-endian byte form of a field element, the
// layout the statement hash is transported in.
func frLEBytes(e fr.Element) [32]byte {
	be := e.Bytes()
	var le [32]byte
	for i := range be {
		le[i] = be[len(be)-1-i]
	}
	return le
}
