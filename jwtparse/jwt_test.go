package jwtparse

import (
	"encoding/base64"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeSegment(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestDecode(t *testing.T) {
	header := `{"alg":"RS256","kid":"test-kid","typ":"JWT"}`
	payload := `{"iss":"https://accounts.google.com","aud":"client-id","sub":"102904",` +
		`"email":"someone@example.com","email_verified":true,` +
		`"iat":1700000000,"exp":1700003600,"nonce":"12345"}`
	token := encodeSegment(header) + "." + encodeSegment(payload) + "." +
		base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x02})

	jwt, err := Decode(token)
	require.NoError(t, err)
	require.Equal(t, "RS256", jwt.Header.Alg)
	require.Equal(t, "test-kid", jwt.Header.Kid)
	require.Equal(t, "https://accounts.google.com", jwt.Payload.Iss)
	require.Equal(t, "client-id", jwt.Payload.Aud)
	require.Equal(t, "102904", jwt.Payload.Sub)
	require.NotNil(t, jwt.Payload.EmailVerified)
	require.True(t, bool(*jwt.Payload.EmailVerified))
	require.Equal(t, int64(1700000000), jwt.Payload.Iat)
	require.Equal(t, "12345", jwt.Payload.Nonce)
	require.Equal(t, int64(0x0102), jwt.Signature.Int64())

	require.Equal(t, encodeSegment(header)+".", jwt.Parts.HeaderWithDot())
	require.Equal(t, encodeSegment(payload), jwt.Parts.PayloadUndecoded())
	require.Equal(t, encodeSegment(header)+"."+encodeSegment(payload),
		jwt.Parts.UnsignedUndecoded())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode("only.two")
	require.Error(t, err)

	_, err = Decode("!!!." + encodeSegment(`{}`) + "." + encodeSegment("sig"))
	require.Error(t, err)

	_, err = Decode(encodeSegment(`not json`) + "." + encodeSegment(`{}`) + "." + encodeSegment("sig"))
	require.Error(t, err)
}

func TestBoolishString(t *testing.T) {
	payload := `{"iss":"x","email_verified":"true","iat":1,"nonce":"n"}`
	token := encodeSegment(`{"alg":"RS256","kid":"k"}`) + "." + encodeSegment(payload) + "." + encodeSegment("s")

	jwt, err := Decode(token)
	require.NoError(t, err)
	require.True(t, bool(*jwt.Payload.EmailVerified))

	payload = `{"email_verified":"yes"}`
	token = encodeSegment(`{}`) + "." + encodeSegment(payload) + "." + encodeSegment("s")
	_, err = Decode(token)
	require.Error(t, err)
}

func TestLimbs64LE(t *testing.T) {
	x := new(big.Int).Lsh(big.NewInt(1), 64)
	x.Add(x, big.NewInt(5))
	require.Equal(t, []uint64{5, 1, 0}, Limbs64LE(x, 3))

	require.Equal(t, []uint64{0, 0}, Limbs64LE(big.NewInt(0), 2))
}
