package trainingwheels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSeedHex = "76b8e0ada0f13d90405d6ae55386bd28bdd219b8a08ded1aa836efcc8b770dc7"

func TestSignAndVerify(t *testing.T) {
	kp, err := FromSeedHex(testSeedHex)
	require.NoError(t, err)

	proof := make([]byte, 256)
	for i := range proof {
		proof[i] = byte(i)
	}
	var pih [32]byte
	pih[0] = 0x42

	sig := kp.Sign(proof, pih)
	require.NoError(t, Verify(kp.PublicKey(), proof, pih, sig))

	// Any change to the statement invalidates the signature.
	proof[0] ^= 1
	require.Error(t, Verify(kp.PublicKey(), proof, pih, sig))
	proof[0] ^= 1

	pih[0] ^= 1
	require.Error(t, Verify(kp.PublicKey(), proof, pih, sig))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp, err := FromSeedHex(testSeedHex)
	require.NoError(t, err)
	other, err := FromSeedHex("0000000000000000000000000000000000000000000000000000000000000001")
	require.NoError(t, err)

	var pih [32]byte
	sig := kp.Sign([]byte("proof"), pih)
	require.Error(t, Verify(other.PublicKey(), []byte("proof"), pih, sig))
}

func TestFromSeedHexAcceptsPrefix(t *testing.T) {
	kp1, err := FromSeedHex(testSeedHex)
	require.NoError(t, err)
	kp2, err := FromSeedHex("0x" + testSeedHex + "\n")
	require.NoError(t, err)
	require.Equal(t, kp1.PublicKey(), kp2.PublicKey())
}

func TestFromSeedRejectsBadLength(t *testing.T) {
	_, err := FromSeed([]byte{1, 2, 3})
	require.Error(t, err)

	_, err = FromSeedHex("abcd")
	require.Error(t, err)
}

func TestFromSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tw_seed")
	require.NoError(t, os.WriteFile(path, []byte(testSeedHex+"\n"), 0o600))

	kp, err := FromSeedFile(path)
	require.NoError(t, err)
	require.Len(t, kp.PublicKey(), 32)

	_, err = FromSeedFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
