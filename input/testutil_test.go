package input

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/hex"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/keylesszk/prover-service/circuit"
	"github.com/keylesszk/prover-service/jwk"
	"github.com/keylesszk/prover-service/poseidon"
)

const (
	testIss    = "https://accounts.google.com"
	testAud    = "407408718192.apps.googleusercontent.com"
	testSub    = "113990307082899718775"
	testEmail  = "someone@example.com"
	testKid    = "test-kid"
	testEpkHex = "0020" +
		"1ed0d1c7e4d1b7f88c6ae9ef1e1ad1e6e0b1a7a59c2e4b0c2f6f4d7e8a9b0c1d"
	testBlinderHex = "2a00000000000000000000000000000000000000000000000000000000000000"
	testPepperHex  = "4c00000000000000000000000000000000000000000000000000000000000000"

	testMaxEpkBytes = 93
)

// testCircuitConfig covers every signal the test JWTs produce.
func testCircuitConfig() *circuit.Config {
	cfg := circuit.NewConfig()
	for signal, length := range map[string]int{
		"b64u_jwt_no_sig_sha2_padded":  1536,
		"b64u_jwt_header_w_dot":        300,
		"b64u_jwt_payload_sha2_padded": 1344,
		"b64u_jwt_payload":             1344,
		"sha2_num_bits":                8,
		"sha2_padding":                 64,
		"epk":                          3,
		"iss_field":                    126,
		"iss_field_string_bodies":      126,
		"iss_name":                     10,
		"iss_value":                    120,
		"nonce_field":                  108,
		"nonce_field_string_bodies":    108,
		"nonce_name":                   10,
		"nonce_value":                  100,
		"iat_field":                    50,
		"iat_name":                     10,
		"iat_value":                    45,
		"uid_field":                    350,
		"uid_field_string_bodies":      350,
		"uid_name":                     30,
		"uid_value":                    330,
		"extra_field":                  350,
		"ev_field":                     30,
		"ev_name":                      20,
		"ev_value":                     10,
		"aud_field":                    160,
		"aud_field_string_bodies":      160,
		"aud_name":                     10,
		"private_aud_value":            120,
		"override_aud_value":           120,
	} {
		cfg = cfg.WithMaxLength(signal, length)
	}
	return cfg
}

type staticResolver struct {
	key jwk.RSAKey
}

func (r *staticResolver) Get(ctx context.Context, iss, kid string) (jwk.RSAKey, error) {
	return r.key, nil
}

type fixture struct {
	cfg     *circuit.Config
	rsaKey  *rsa.PrivateKey
	jwk     jwk.RSAKey
	request RequestInput
}

type claimsOverride func(claims gojwt.MapClaims)

// newFixture builds a request whose JWT is self-consistent: signed by the
// fixture's RSA key and carrying the nonce commitment for the fixture's epk.
func newFixture(t *testing.T, overrides ...claimsOverride) *fixture {
	t.Helper()

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := testCircuitConfig()
	iat := time.Now().Unix() - 60
	expDate := uint64(iat) + 3600
	horizon := uint64(10_000_000)

	epk, err := hex.DecodeString(testEpkHex)
	require.NoError(t, err)
	blinder := poseidon.FrFromLEBytes(mustHex(t, testBlinderHex))

	nonce, err := ComputeNonce(cfg, epk, expDate, blinder)
	require.NoError(t, err)

	claims := gojwt.MapClaims{
		"iss":            testIss,
		"aud":            testAud,
		"sub":            testSub,
		"email":          testEmail,
		"email_verified": true,
		"iat":            iat,
		"exp":            iat + 7200,
		"nonce":          poseidon.FrString(nonce),
	}
	for _, override := range overrides {
		override(claims)
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKid
	signed, err := token.SignedString(rsaKey)
	require.NoError(t, err)

	return &fixture{
		cfg:    cfg,
		rsaKey: rsaKey,
		jwk: jwk.RSAKey{
			Kid: testKid,
			Kty: "RSA",
			Alg: "RS256",
			E:   "AQAB",
			N:   base64.RawURLEncoding.EncodeToString(rsaKey.N.Bytes()),
		},
		request: RequestInput{
			JwtB64:        signed,
			EpkHex:        testEpkHex,
			EpkBlinderHex: testBlinderHex,
			ExpDateSecs:   expDate,
			ExpHorizon:    horizon,
			PepperHex:     testPepperHex,
			UidKey:        "sub",
		},
	}
}

func (f *fixture) validator() *Validator {
	return NewValidator(f.cfg, &staticResolver{key: f.jwk})
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
