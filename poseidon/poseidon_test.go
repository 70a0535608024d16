package poseidon

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestHashScalarsMatchesCircomVector(t *testing.T) {
	// Known-answer vector from the circomlib test suite: poseidon(1, 2).
	var a, b fr.Element
	a.SetUint64(1)
	b.SetUint64(2)

	digest, err := HashScalars([]fr.Element{a, b})
	require.NoError(t, err)
	require.Equal(t,
		"7853200120776062878684798364095072458815029376092732009249414926327459813530",
		FrString(digest))
}

func TestHashScalarsDeterministic(t *testing.T) {
	var a fr.Element
	a.SetUint64(42)

	first, err := HashScalars([]fr.Element{a})
	require.NoError(t, err)
	second, err := HashScalars([]fr.Element{a})
	require.NoError(t, err)
	require.True(t, first.Equal(&second))
}

func TestHashScalarsRejectsBadWidths(t *testing.T) {
	_, err := HashScalars(nil)
	require.Error(t, err)

	tooMany := make([]fr.Element, MaxNumInputScalars+1)
	_, err = HashScalars(tooMany)
	require.Error(t, err)
}

func TestPackBytesToOneScalarLittleEndian(t *testing.T) {
	// 0x0201 little-endian.
	scalar, err := PackBytesToOneScalar([]byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, "513", FrString(scalar))

	_, err = PackBytesToOneScalar(make([]byte, 32))
	require.Error(t, err)
}

func TestPadAndPackBytesWithLen(t *testing.T) {
	scalars, err := PadAndPackBytesWithLen([]byte{0x07}, 93)
	require.NoError(t, err)
	// 93 bytes = 3 packed scalars, plus the length scalar.
	require.Len(t, scalars, 4)
	require.Equal(t, "7", FrString(scalars[0]))
	require.Equal(t, "0", FrString(scalars[1]))
	require.Equal(t, "0", FrString(scalars[2]))
	require.Equal(t, "1", FrString(scalars[3]))
}

func TestPadAndPackBytesWithLenRejectsOverflow(t *testing.T) {
	_, err := PadAndPackBytesWithLen(make([]byte, 94), 93)
	require.Error(t, err)

	_, err = PadAndPackBytesWithLen(nil, MaxNumInputBytes+1)
	require.Error(t, err)
}

func TestFrStringZero(t *testing.T) {
	var zero fr.Element
	require.Equal(t, "0", FrString(zero))
}
