// Package poseidon wraps the circom-compatible Poseidon hash over the BN254
// scalar field with the byte-packing conventions the keyless circuit expects.
// Every hashed string or byte slice is zero-padded to a caller-supplied
// maximum before packing, so that the padded length is structural and two
// different inputs can never collide by length alone.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

const (
	// BytesPackedPerScalar is how many input bytes fit into one BN254 scalar
	// (248 bits, safely below the 254-bit field modulus).
	BytesPackedPerScalar = 31

	// MaxNumInputScalars is the widest Poseidon instance the circuit uses.
	MaxNumInputScalars = 16

	// MaxNumInputBytes is the byte budget of a single pad-and-hash call: one
	// scalar is reserved for the explicit length.
	MaxNumInputBytes = (MaxNumInputScalars - 1) * BytesPackedPerScalar
)

// HashScalars folds up to MaxNumInputScalars field elements with Poseidon.
func HashScalars(scalars []fr.Element) (fr.Element, error) {
	var out fr.Element
	if len(scalars) == 0 || len(scalars) > MaxNumInputScalars {
		return out, fmt.Errorf("poseidon: unsupported input width %d", len(scalars))
	}

	inputs := make([]*big.Int, len(scalars))
	for i := range scalars {
		inputs[i] = scalars[i].BigInt(new(big.Int))
	}

	digest, err := poseidon.Hash(inputs)
	if err != nil {
		return out, fmt.Errorf("poseidon: %w", err)
	}
	out.SetBigInt(digest)
	return out, nil
}

// PackBytesToOneScalar interprets chunk as a little-endian integer. The chunk
// must be shorter than 32 bytes so the value fits the field.
func PackBytesToOneScalar(chunk []byte) (fr.Element, error) {
	var out fr.Element
	if len(chunk) >= 32 {
		return out, fmt.Errorf("poseidon: cannot pack %d bytes into one scalar", len(chunk))
	}

	be := make([]byte, len(chunk))
	for i, b := range chunk {
		be[len(chunk)-1-i] = b
	}
	out.SetBigInt(new(big.Int).SetBytes(be))
	return out, nil
}

// PackBytesToScalars splits bytes into 31-byte chunks, each packed
// little-endian into one scalar.
func PackBytesToScalars(bytes []byte) ([]fr.Element, error) {
	var scalars []fr.Element
	for len(bytes) > 0 {
		n := BytesPackedPerScalar
		if len(bytes) < n {
			n = len(bytes)
		}
		scalar, err := PackBytesToOneScalar(bytes[:n])
		if err != nil {
			return nil, err
		}
		scalars = append(scalars, scalar)
		bytes = bytes[n:]
	}
	return scalars, nil
}

// PadAndPackBytesWithLen zero-pads bytes to maxBytes, packs the padded slice
// into scalars, and appends the original length as a final scalar. The
// explicit length scalar prevents padding-equivalence forgeries.
func PadAndPackBytesWithLen(bytes []byte, maxBytes int) ([]fr.Element, error) {
	if len(bytes) > maxBytes {
		return nil, fmt.Errorf("poseidon: input of %d bytes exceeds budget of %d", len(bytes), maxBytes)
	}
	if maxBytes > MaxNumInputBytes {
		return nil, fmt.Errorf("poseidon: byte budget %d exceeds maximum %d", maxBytes, MaxNumInputBytes)
	}

	padded := make([]byte, maxBytes)
	copy(padded, bytes)

	scalars, err := PackBytesToScalars(padded)
	if err != nil {
		return nil, err
	}

	var length fr.Element
	length.SetUint64(uint64(len(bytes)))
	return append(scalars, length), nil
}

// PadAndHashBytesWithLen is PadAndPackBytesWithLen followed by HashScalars.
func PadAndHashBytesWithLen(bytes []byte, maxBytes int) (fr.Element, error) {
	scalars, err := PadAndPackBytesWithLen(bytes, maxBytes)
	if err != nil {
		return fr.Element{}, err
	}
	return HashScalars(scalars)
}

// PadAndHashString hashes the raw bytes of s under a maxBytes budget.
func PadAndHashString(s string, maxBytes int) (fr.Element, error) {
	return PadAndHashBytesWithLen([]byte(s), maxBytes)
}

// FrFromLEBytes reduces a little-endian byte string into the field. Used for
// peppers and blinders, which are transported as raw bytes.
func FrFromLEBytes(b []byte) fr.Element {
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	var out fr.Element
	out.SetBigInt(new(big.Int).SetBytes(be))
	return out
}

// FrString renders a field element as the decimal string the witness
// generator consumes. The additive identity always renders as "0", guarding
// against serializers that emit the empty string for zero.
func FrString(e fr.Element) string {
	s := e.String()
	if s == "" {
		return "0"
	}
	return s
}
