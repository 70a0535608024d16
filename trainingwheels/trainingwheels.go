// Package trainingwheels implements the prover's co-signature over issued
// proofs. While the circuit is young, verifiers additionally require this
// signature, so a soundness bug in the circuit cannot mint proofs on its own.
// The signature covers the proof and the public inputs hash; whenever the
// verifying key rotates, the training wheels key must rotate with it, or old
// proofs would keep passing the co-signature check.
package trainingwheels

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// KeyPair is the service's Ed25519 training wheels key.
type KeyPair struct {
	signingKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// FromSeed derives the key pair from a 32-byte seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("training wheels seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	signingKey := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{
		signingKey: signingKey,
		publicKey:  signingKey.Public().(ed25519.PublicKey),
	}, nil
}

// FromSeedHex derives the key pair from a hex seed, accepting an 0x prefix.
func FromSeedHex(s string) (*KeyPair, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decoding training wheels seed hex: %w", err)
	}
	return FromSeed(seed)
}

// FromSeedFile reads a hex seed from a file.
func FromSeedFile(path string) (*KeyPair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading training wheels seed file: %w", err)
	}
	return FromSeedHex(string(b))
}

// PublicKey returns the verification key.
func (k *KeyPair) PublicKey() ed25519.PublicKey {
	return k.publicKey
}

// Sign co-signs a proof and the public inputs hash it attests to.
func (k *KeyPair) Sign(proofBytes []byte, publicInputsHash [32]byte) []byte {
	return ed25519.Sign(k.signingKey, message(proofBytes, publicInputsHash))
}

// Verify checks a co-signature under the given verification key.
func Verify(publicKey ed25519.PublicKey, proofBytes []byte, publicInputsHash [32]byte, signature []byte) error {
	if !ed25519.Verify(publicKey, message(proofBytes, publicInputsHash), signature) {
		return fmt.Errorf("training wheels signature verification failed")
	}
	return nil
}

// message is the signed statement: the canonical proof encoding followed by
// the little-endian public inputs hash.
func message(proofBytes []byte, publicInputsHash [32]byte) []byte {
	msg := make([]byte, 0, len(proofBytes)+len(publicInputsHash))
	msg = append(msg, proofBytes...)
	msg = append(msg, publicInputsHash[:]...)
	return msg
}
