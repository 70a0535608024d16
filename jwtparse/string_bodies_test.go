package jwtparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boolsFromBits(bits ...int) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b == 1
	}
	return out
}

func TestStringBodies(t *testing.T) {
	require.Equal(t,
		boolsFromBits(0, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0),
		StringBodies(`"123" 456 "7"`))

	require.Equal(t,
		boolsFromBits(0, 1, 1, 1, 0),
		StringBodies(`"abc"`))

	require.Equal(t,
		boolsFromBits(0, 0, 0, 0),
		StringBodies(`1234`))
}

func TestStringBodiesShortInputs(t *testing.T) {
	require.Empty(t, StringBodies(""))
	require.Equal(t, []bool{false}, StringBodies(`"`))
	require.Equal(t, []bool{false, true}, StringBodies(`""`))
}

func TestStringBodiesJSONFragment(t *testing.T) {
	// Keys and values are bodies, structural characters are not.
	s := `{"a":"b"}`
	bodies := StringBodies(s)
	require.Equal(t,
		boolsFromBits(0, 0, 1, 0, 0, 0, 1, 0, 0),
		bodies)
}

func TestStringBodiesEscapedQuoteStaysOpen(t *testing.T) {
	// The backslash keeps the string open through the escaped quote.
	require.Equal(t,
		boolsFromBits(0, 1, 1, 1, 1, 0),
		StringBodies(`"a\"b"`))
}
