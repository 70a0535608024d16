package input

import (
	"context"
	"math/big"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"

	"github.com/keylesszk/prover-service/circuit"
	"github.com/keylesszk/prover-service/jwk"
	"github.com/keylesszk/prover-service/jwtparse"
	"github.com/keylesszk/prover-service/poseidon"
)

// KeyResolver answers JWK lookups during validation.
type KeyResolver interface {
	Get(ctx context.Context, iss, kid string) (jwk.RSAKey, error)
}

// Validator runs every check a request must pass before proving starts. If a
// request gets through, the public statement to be proved is correct.
type Validator struct {
	circuitConfig *circuit.Config
	keys          KeyResolver

	// now is swappable for tests.
	now func() time.Time
}

func NewValidator(circuitConfig *circuit.Config, keys KeyResolver) *Validator {
	return &Validator{
		circuitConfig: circuitConfig,
		keys:          keys,
		now:           time.Now,
	}
}

// Validate checks the request and returns the verified input on success.
// Every failed check is a ClientError.
func (v *Validator) Validate(ctx context.Context, req *RequestInput) (*VerifiedInput, error) {
	jwt, err := jwtparse.Decode(req.JwtB64)
	if err != nil {
		return nil, ClientErrorf("decoding jwt: %v", err)
	}

	key, err := v.keys.Get(ctx, jwt.Payload.Iss, jwt.Header.Kid)
	if err != nil {
		return nil, ClientErrorf("resolving jwk: %v", err)
	}

	if err := validateJwtSignature(key, req.JwtB64); err != nil {
		return nil, err
	}

	// The requested expiration must fall inside the horizon anchored at the
	// token's issue time.
	if jwt.Payload.Iat < 0 {
		return nil, ClientErrorf("jwt iat is negative")
	}
	horizonEnd := new(big.Int).Add(
		new(big.Int).SetUint64(uint64(jwt.Payload.Iat)),
		new(big.Int).SetUint64(req.ExpHorizon))
	if new(big.Int).SetUint64(req.ExpDateSecs).Cmp(horizonEnd) >= 0 {
		return nil, ClientErrorf("exp_date_secs is past the expiration horizon")
	}

	if jwt.Payload.Iat > v.now().Unix() {
		return nil, ClientErrorf("jwt which was issued in the future")
	}

	epk, err := req.Epk()
	if err != nil {
		return nil, err
	}
	blinder, err := req.EpkBlinderFr()
	if err != nil {
		return nil, err
	}
	nonce, err := ComputeNonce(v.circuitConfig, epk, req.ExpDateSecs, blinder)
	if err != nil {
		return nil, err
	}
	if jwt.Payload.Nonce != poseidon.FrString(nonce) {
		return nil, ClientErrorf("jwt nonce does not match the computed nonce commitment")
	}

	var uidVal string
	switch req.UidKey {
	case "email":
		if jwt.Payload.EmailVerified == nil || !bool(*jwt.Payload.EmailVerified) {
			return nil, ClientErrorf("email_verified claim must be true when uid_key is email")
		}
		if jwt.Payload.Email == "" {
			return nil, ClientErrorf("missing email in jwt payload")
		}
		uidVal = jwt.Payload.Email
	case "sub":
		if jwt.Payload.Sub == "" {
			return nil, ClientErrorf("missing sub in jwt payload")
		}
		uidVal = jwt.Payload.Sub
	default:
		return nil, ClientErrorf("unrecognized uid_key: %s", req.UidKey)
	}

	pepper, err := req.PepperFr()
	if err != nil {
		return nil, err
	}

	return &VerifiedInput{
		Jwt:            jwt,
		Jwk:            key,
		Epk:            epk,
		EpkBlinder:     blinder,
		Pepper:         pepper,
		ExpDateSecs:    req.ExpDateSecs,
		ExpHorizonSecs: req.ExpHorizon,
		UidKey:         req.UidKey,
		UidVal:         uidVal,
		ExtraField:     req.ExtraField,
		IdcAud:         req.IdcAud,
		SkipAudChecks:  req.SkipAudChecks,
	}, nil
}

func validateJwtSignature(key jwk.RSAKey, token string) error {
	pub, err := key.PublicKey()
	if err != nil {
		return ClientErrorf("building rsa key from jwk: %v", err)
	}

	parser := gojwt.NewParser(gojwt.WithValidMethods([]string{"RS256"}))
	_, err = parser.Parse(token, func(t *gojwt.Token) (any, error) {
		return pub, nil
	})
	if err != nil {
		return ClientErrorf("jwt signature validation failed: %v", err)
	}
	return nil
}
