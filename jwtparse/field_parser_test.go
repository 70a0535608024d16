package jwtparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindAndParseFieldQuotedValue(t *testing.T) {
	payload := `{"iss": "https://accounts.google.com","iat":1700000000}`

	f, err := FindAndParseField(payload, "iss")
	require.NoError(t, err)
	require.Equal(t, 1, f.Index)
	require.Equal(t, "iss", f.Key)
	require.Equal(t, "https://accounts.google.com", f.Value)
	require.Equal(t, 5, f.ColonIndex)
	require.Equal(t, 8, f.ValueIndex)
	require.Equal(t, `"iss": "https://accounts.google.com",`, f.WholeField)
}

func TestFindAndParseFieldUnquotedValue(t *testing.T) {
	payload := `{"iat":1700000000,"email_verified":true}`

	f, err := FindAndParseField(payload, "iat")
	require.NoError(t, err)
	require.Equal(t, "1700000000", f.Value)
	require.Equal(t, 6, f.ColonIndex)
	require.Equal(t, 7, f.ValueIndex)
	require.Equal(t, `"iat":1700000000,`, f.WholeField)

	f, err = FindAndParseField(payload, "email_verified")
	require.NoError(t, err)
	require.Equal(t, "true", f.Value)
	require.Equal(t, `"email_verified":true}`, f.WholeField)
}

// The whole field stops at its own delimiter even when more payload follows.
func TestWholeFieldEndsAtDelimiter(t *testing.T) {
	payload := `"email": "someone@example.com" , DONTINCLUDETHIS`

	f, err := FindAndParseField(payload, "email")
	require.NoError(t, err)
	require.Equal(t, "someone@example.com", f.Value)
	require.Equal(t, `"email": "someone@example.com" ,`, f.WholeField)
}

func TestFindAndParseFieldWhitespace(t *testing.T) {
	payload := `{ "aud" :  "test-client-id" }`

	f, err := FindAndParseField(payload, "aud")
	require.NoError(t, err)
	require.Equal(t, "test-client-id", f.Value)
	require.Equal(t, `"aud" :  "test-client-id" }`, f.WholeField)
	// ColonIndex and ValueIndex are relative to the field start.
	require.Equal(t, byte(':'), f.WholeField[f.ColonIndex])
	require.Equal(t, byte('t'), f.WholeField[f.ValueIndex])
}

func TestFindAndParseFieldMissingKey(t *testing.T) {
	_, err := FindAndParseField(`{"iss":"x"}`, "aud")
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestFindAndParseFieldTruncated(t *testing.T) {
	_, err := FindAndParseField(`{"iss": "https://no-close`, "iss")
	require.Error(t, err)

	_, err = FindAndParseField(`{"iss": "x"`, "iss") // no delimiter
	require.Error(t, err)

	_, err = FindAndParseField(`{"iss" "x",}`, "iss") // no colon
	require.Error(t, err)
}

// The value scanner stops at the first quote even when it is escaped. The
// string-body classifier treats the same quote as non-closing. Both behaviors
// are relied upon downstream, so the divergence is pinned here.
func TestEscapedQuoteDivergence(t *testing.T) {
	payload := `{"name": "a\","iat":1}`

	f, err := FindAndParseField(payload, "name")
	require.NoError(t, err)
	require.Equal(t, `a\`, f.Value)
	require.Equal(t, `"name": "a\",`, f.WholeField)

	bodies := StringBodies(`"a\"b"`)
	require.Equal(t, []bool{false, true, true, true, true, false}, bodies)
}
