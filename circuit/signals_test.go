package circuit

import (
	"encoding/json"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestPadToConfiguredLengths(t *testing.T) {
	cfg := NewConfig().
		WithMaxLength("payload", 16).
		WithMaxLength("modulus", 4)

	builder := NewSignalsBuilder().
		Str("payload", "abc").
		Limbs("modulus", []uint64{7, 9}).
		U64("exp_date", 1700000000)

	padded, err := builder.Pad(cfg)
	require.NoError(t, err)

	n, ok := padded.byteLen("payload")
	require.True(t, ok)
	require.Equal(t, 16, n)

	n, ok = padded.byteLen("modulus")
	require.True(t, ok)
	require.Equal(t, 4, n)
}

func TestPadNeverTruncates(t *testing.T) {
	cfg := NewConfig().WithMaxLength("payload", 2)

	_, err := NewSignalsBuilder().Str("payload", "abc").Pad(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "max byte length")

	cfg = NewConfig().WithMaxLength("modulus", 1)
	_, err = NewSignalsBuilder().Limbs("modulus", []uint64{1, 2}).Pad(cfg)
	require.Error(t, err)
}

// Byte signals require a configured max; limb signals default to their own
// length. The asymmetry is load-bearing for circuit compatibility, so pin it.
func TestPadMissingConfigAsymmetry(t *testing.T) {
	cfg := NewConfig()

	_, err := NewSignalsBuilder().Bytes("unknown_bytes", []byte{1}).Pad(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no max length")

	padded, err := NewSignalsBuilder().Limbs("unknown_limbs", []uint64{1, 2, 3}).Pad(cfg)
	require.NoError(t, err)
	n, ok := padded.byteLen("unknown_limbs")
	require.True(t, ok)
	require.Equal(t, 3, n)
}

func TestMergeRejectsDuplicates(t *testing.T) {
	a := NewSignalsBuilder().U64("x", 1)
	b := NewSignalsBuilder().U64("x", 2)

	_, err := a.Merge(b)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redefine")

	c := NewSignalsBuilder().U64("y", 2)
	merged, err := NewSignalsBuilder().U64("x", 1).Merge(c)
	require.NoError(t, err)
	require.NotNil(t, merged)
}

func TestCanonicalJSONDecimalStrings(t *testing.T) {
	var zero, one fr.Element
	one.SetOne()

	cfg := NewConfig().WithMaxLength("bytes", 3)
	padded, err := NewSignalsBuilder().
		Bytes("bytes", []byte{255}).
		U64("number", 12345).
		Fr("zero_fr", zero).
		Frs("frs", []fr.Element{one, zero}).
		Bool("flag", true).
		Pad(cfg)
	require.NoError(t, err)

	raw, err := padded.CanonicalJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.Equal(t, "12345", decoded["number"])
	require.Equal(t, "1", decoded["flag"])
	// The zero field element must serialize as the literal "0".
	require.Equal(t, "0", decoded["zero_fr"])
	require.Equal(t, []any{"1", "0"}, decoded["frs"])
	require.Equal(t, []any{"255", "0", "0"}, decoded["bytes"])
}

func TestBoolsEncodeAsBytes(t *testing.T) {
	cfg := NewConfig().WithMaxLength("bits", 4)
	padded, err := NewSignalsBuilder().
		Bools("bits", []bool{true, false, true}).
		Pad(cfg)
	require.NoError(t, err)

	raw, err := padded.CanonicalJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, []any{"1", "0", "1", "0"}, decoded["bits"])
}
