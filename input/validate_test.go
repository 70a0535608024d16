package input

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	f := newFixture(t)

	v, err := f.validator().Validate(context.Background(), &f.request)
	require.NoError(t, err)
	require.Equal(t, testSub, v.UidVal)
	require.Equal(t, "sub", v.UidKey)
	require.Equal(t, testIss, v.Jwt.Payload.Iss)
	require.False(t, v.UseExtraField())
}

func TestValidateAcceptsEmailUid(t *testing.T) {
	f := newFixture(t)
	f.request.UidKey = "email"

	v, err := f.validator().Validate(context.Background(), &f.request)
	require.NoError(t, err)
	require.Equal(t, testEmail, v.UidVal)
}

func TestValidateRejectsWrongSignature(t *testing.T) {
	f := newFixture(t)

	// Swap in a key that did not sign the token.
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f.jwk.N = base64.RawURLEncoding.EncodeToString(otherKey.N.Bytes())

	_, err = f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func TestValidateRejectsExpDatePastHorizon(t *testing.T) {
	f := newFixture(t)
	f.request.ExpHorizon = 10 // exp_date is iat+3600, far past this horizon

	_, err := f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func TestValidateRejectsFutureIat(t *testing.T) {
	f := newFixture(t, func(claims gojwt.MapClaims) {
		claims["iat"] = claims["iat"].(int64) + 100_000
	})
	f.request.ExpDateSecs += 100_000

	_, err := f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func TestValidateRejectsNonceMismatch(t *testing.T) {
	f := newFixture(t, func(claims gojwt.MapClaims) {
		claims["nonce"] = "1234567890"
	})

	_, err := f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func TestValidateRejectsUnverifiedEmail(t *testing.T) {
	f := newFixture(t, func(claims gojwt.MapClaims) {
		claims["email_verified"] = false
	})
	f.request.UidKey = "email"

	_, err := f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func TestValidateRejectsUnknownUidKey(t *testing.T) {
	f := newFixture(t)
	f.request.UidKey = "phone_number"

	_, err := f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func TestValidateRejectsBadHexInputs(t *testing.T) {
	f := newFixture(t)
	f.request.EpkHex = "zz"

	_, err := f.validator().Validate(context.Background(), &f.request)
	requireClientError(t, err)
}

func requireClientError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
}
