package jwtparse

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Parts holds the three base64url segments of a compact JWT, undecoded.
type Parts struct {
	HeaderB64    string
	PayloadB64   string
	SignatureB64 string
}

// Split breaks a compact-serialized JWT into its three segments.
func Split(jwt string) (Parts, error) {
	segments := strings.Split(jwt, ".")
	if len(segments) != 3 {
		return Parts{}, fmt.Errorf("jwt has %d segments, want 3", len(segments))
	}
	return Parts{
		HeaderB64:    segments[0],
		PayloadB64:   segments[1],
		SignatureB64: segments[2],
	}, nil
}

// UnsignedUndecoded returns the signed portion of the token, still encoded.
func (p Parts) UnsignedUndecoded() string {
	return p.HeaderB64 + "." + p.PayloadB64
}

// HeaderWithDot returns the encoded header including its trailing separator.
func (p Parts) HeaderWithDot() string {
	return p.HeaderB64 + "."
}

// PayloadUndecoded returns the encoded payload segment.
func (p Parts) PayloadUndecoded() string {
	return p.PayloadB64
}

func (p Parts) DecodePayload() ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(p.PayloadB64)
	if err != nil {
		return nil, fmt.Errorf("decoding jwt payload: %w", err)
	}
	return b, nil
}

func (p Parts) DecodeHeader() ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(p.HeaderB64)
	if err != nil {
		return nil, fmt.Errorf("decoding jwt header: %w", err)
	}
	return b, nil
}

func (p Parts) DecodeSignature() ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(p.SignatureB64)
	if err != nil {
		return nil, fmt.Errorf("decoding jwt signature: %w", err)
	}
	return b, nil
}

// Header is the subset of the JWT header the prover consumes.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ,omitempty"`
}

// Payload is the subset of claims the prover consumes directly. Fields the
// circuit attests to are additionally re-located byte-exactly in the raw
// payload by FindAndParseField.
type Payload struct {
	Iss           string   `json:"iss"`
	Aud           string   `json:"aud"`
	Sub           string   `json:"sub"`
	Email         string   `json:"email,omitempty"`
	EmailVerified *Boolish `json:"email_verified,omitempty"`
	Iat           int64    `json:"iat"`
	Exp           int64    `json:"exp"`
	Nonce         string   `json:"nonce"`
}

// Boolish accepts both JSON booleans and the stringified booleans some
// identity providers emit for email_verified.
type Boolish bool

func (b *Boolish) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"true"`:
		*b = true
	case "false", `"false"`:
		*b = false
	default:
		return fmt.Errorf("cannot interpret %s as a boolean", data)
	}
	return nil
}

// DecodedJWT is the fully decoded token alongside its raw segments.
type DecodedJWT struct {
	Parts     Parts
	Header    Header
	Payload   Payload
	Signature *big.Int
}

// Decode splits and decodes a compact JWT without verifying its signature.
// Signature verification happens later against the issuer's JWK.
func Decode(jwt string) (*DecodedJWT, error) {
	parts, err := Split(jwt)
	if err != nil {
		return nil, err
	}

	headerBytes, err := parts.DecodeHeader()
	if err != nil {
		return nil, err
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("unmarshaling jwt header: %w", err)
	}

	payloadBytes, err := parts.DecodePayload()
	if err != nil {
		return nil, err
	}
	var payload Payload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling jwt payload: %w", err)
	}

	sigBytes, err := parts.DecodeSignature()
	if err != nil {
		return nil, err
	}

	return &DecodedJWT{
		Parts:     parts,
		Header:    header,
		Payload:   payload,
		Signature: new(big.Int).SetBytes(sigBytes),
	}, nil
}

// SignatureLimbs returns the RSA signature as little-endian 64-bit limbs,
// zero-padded to numLimbs.
func (d *DecodedJWT) SignatureLimbs(numLimbs int) []uint64 {
	return Limbs64LE(d.Signature, numLimbs)
}

// Limbs64LE splits a non-negative integer into numLimbs 64-bit limbs, least
// significant limb first.
func Limbs64LE(x *big.Int, numLimbs int) []uint64 {
	limbs := make([]uint64, numLimbs)
	tmp := new(big.Int).Set(x)
	mask := new(big.Int).SetUint64(^uint64(0))
	word := new(big.Int)
	for i := 0; i < numLimbs; i++ {
		word.And(tmp, mask)
		limbs[i] = word.Uint64()
		tmp.Rsh(tmp, 64)
	}
	return limbs
}
