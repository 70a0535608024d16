// Package jwk maintains the RSA verification keys of the supported OIDC
// providers: a periodically refreshed in-memory cache for the issuers named
// in the service config, plus on-demand resolution for federated issuers
// recognized by URL pattern.
package jwk

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/keylesszk/prover-service/jwtparse"
	"github.com/keylesszk/prover-service/poseidon"
)

// rsaModulusBytes is the only modulus size the circuit supports.
const rsaModulusBytes = 256

// circuitChunkBytes is how many modulus bytes pack into one field element for
// the modulus digest.
const circuitChunkBytes = 24

// RSAKey is one RS256 entry of a provider's JWK set.
type RSAKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	E   string `json:"e"`
	N   string `json:"n"`
}

// Modulus decodes the base64url modulus.
func (k *RSAKey) Modulus() ([]byte, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding jwk modulus: %w", err)
	}
	return n, nil
}

// PublicKey converts the JWK into a usable RSA public key.
func (k *RSAKey) PublicKey() (*rsa.PublicKey, error) {
	n, err := k.Modulus()
	if err != nil {
		return nil, err
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding jwk exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}

// As64BitLimbs returns the modulus as little-endian 64-bit limbs, the layout
// the circuit expects for its pubkey_modulus input.
func (k *RSAKey) As64BitLimbs() ([]uint64, error) {
	n, err := k.Modulus()
	if err != nil {
		return nil, err
	}
	if len(n) != rsaModulusBytes {
		return nil, fmt.Errorf("jwk modulus is %d bytes, want %d", len(n), rsaModulusBytes)
	}
	return jwtparse.Limbs64LE(new(big.Int).SetBytes(n), rsaModulusBytes/8), nil
}

// ToPoseidonScalar hashes the modulus into a single field element. The
// modulus is reversed into little-endian byte order, packed 24 bytes per
// scalar, and hashed together with the modulus byte length, matching the
// on-chain JWK commitment.
func (k *RSAKey) ToPoseidonScalar() (fr.Element, error) {
	n, err := k.Modulus()
	if err != nil {
		return fr.Element{}, err
	}
	if len(n) != rsaModulusBytes {
		return fr.Element{}, fmt.Errorf("jwk modulus is %d bytes, want %d", len(n), rsaModulusBytes)
	}

	le := make([]byte, len(n))
	for i, b := range n {
		le[len(n)-1-i] = b
	}

	var scalars []fr.Element
	for start := 0; start < len(le); start += circuitChunkBytes {
		end := start + circuitChunkBytes
		if end > len(le) {
			end = len(le)
		}
		scalar, err := poseidon.PackBytesToOneScalar(le[start:end])
		if err != nil {
			return fr.Element{}, err
		}
		scalars = append(scalars, scalar)
	}

	var length fr.Element
	length.SetUint64(rsaModulusBytes)
	scalars = append(scalars, length)

	return poseidon.HashScalars(scalars)
}
