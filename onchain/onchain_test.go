package onchain

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/stretchr/testify/require"
)

func g1Generator(t *testing.T) curve.G1Affine {
	t.Helper()
	var p curve.G1Affine
	_, err := p.X.SetString("1")
	require.NoError(t, err)
	_, err = p.Y.SetString("2")
	require.NoError(t, err)
	require.True(t, p.IsOnCurve())
	return p
}

func g2Generator(t *testing.T) curve.G2Affine {
	t.Helper()
	var p curve.G2Affine
	_, err := p.X.A0.SetString("10857046999023057135944570762232829481370756359578518086990519993285655852781")
	require.NoError(t, err)
	_, err = p.X.A1.SetString("11559732032986387107991004021392285783925812861821192530917403151452391805634")
	require.NoError(t, err)
	_, err = p.Y.A0.SetString("8495653923123431417604973247489272438418190587263600148770280649306958101930")
	require.NoError(t, err)
	_, err = p.Y.A1.SetString("4082367875863433681332203403145435568316851327593401208105741076214120093531")
	require.NoError(t, err)
	require.True(t, p.IsOnCurve())
	return p
}

func TestCompressG1Generator(t *testing.T) {
	gen := g1Generator(t)

	// x = 1 little-endian; y = 2 is the smaller root, so no sign flag.
	want := "0x01" + strings.Repeat("00", 31)
	require.Equal(t, want, CompressG1(&gen))
}

func TestCompressG1SignFlag(t *testing.T) {
	gen := g1Generator(t)
	var neg curve.G1Affine
	neg.Neg(&gen)

	a := CompressG1(&gen)
	b := CompressG1(&neg)
	require.NotEqual(t, a, b)
	// Negation flips only the sign bit in the final byte.
	require.Equal(t, a[:len(a)-2], b[:len(b)-2])
}

func TestCompressG1Infinity(t *testing.T) {
	var inf curve.G1Affine
	require.True(t, inf.IsInfinity())
	require.Equal(t, "0x"+strings.Repeat("00", 31)+"40", CompressG1(&inf))
}

func TestCompressG2(t *testing.T) {
	gen := g2Generator(t)
	var neg curve.G2Affine
	neg.Neg(&gen)

	a := CompressG2(&gen)
	b := CompressG2(&neg)
	require.Len(t, a, 2+128)
	require.NotEqual(t, a, b)
	require.Equal(t, a[:len(a)-2], b[:len(b)-2])

	var inf curve.G2Affine
	require.True(t, inf.IsInfinity())
	require.Equal(t, "0x"+strings.Repeat("00", 63)+"40", CompressG2(&inf))
}

func TestFromVerifyingKey(t *testing.T) {
	g1 := g1Generator(t)
	g2 := g2Generator(t)

	var vk groth16_bn254.VerifyingKey
	vk.G1.Alpha = g1
	vk.G2.Beta = g2
	vk.G2.Gamma = g2
	vk.G2.Delta = g2
	vk.G1.K = []curve.G1Affine{g1, g1}

	oc := FromVerifyingKey(&vk)
	require.Equal(t, Groth16VKResourceType, oc.Type)
	require.Equal(t, CompressG1(&g1), oc.Data.AlphaG1)
	require.Len(t, oc.Data.GammaABCG1, 2)
	require.True(t, oc.Data.Equal(oc.Data))

	other := oc
	other.Data.GammaABCG1 = []string{oc.Data.GammaABCG1[0]}
	require.False(t, oc.Data.Equal(other.Data))
}

const vkResourceJSON = `{
  "type": "0x1::keyless_account::Groth16VerificationKey",
  "data": {
    "alpha_g1": "0xe2f26dbea299f5223b646cb1fb33eadb059d9407559d7441dfd902e3a79a4d2d",
    "beta_g2": "0xabb73dc17fbc13021e2471e0c08bd67d8401f52b73d6d07483794cad4778180e0c06f33bbc4c79a9cadef253a68084d382f17788f885c9afd176f7cb2f036789",
    "delta_g2": "0xb106619932d0ef372c46909a2492e246d5de739aa140e27f2c71c0470662f125219049cfe15e4d140d7e4bb911284aad1cad19880efb86f2d9dd4b1bb344ef8f",
    "gamma_abc_g1": [
      "0x6123b6fea40de2a7e3595f9c35210da8a45a7e8c2f7da9eb4548e9210cfea81a",
      "0x32a9b8347c512483812ee922dc75952842f8f3083edb6fe8d5c3c07e1340b683"
    ],
    "gamma_g2": "0xedf692d95cbdde46ddda5ef7d422436779445c5e66006a42761e1f12efde0018c212f3aeb785e49712e7a9353349aaf1255dfb31b7bf60723a480d9293938e19"
  }
}`

const configResourceJSON = `{
  "type": "0x1::keyless_account::Configuration",
  "data": {
    "max_commited_epk_bytes": 93,
    "max_exp_horizon_secs": "10000000",
    "max_extra_field_bytes": 350,
    "max_iss_val_bytes": 120,
    "max_jwt_header_b64_bytes": 300,
    "max_signatures_per_txn": 3,
    "override_aud_vals": [],
    "training_wheels_pubkey": {
      "vec": [
        "0x1388de358cf4701696bd58ed4b96e9d670cbbb914b888be1ceda6374a3098ed4"
      ]
    }
  }
}`

func TestResourceJSONShapes(t *testing.T) {
	var vk Groth16VerificationKey
	require.NoError(t, json.Unmarshal([]byte(vkResourceJSON), &vk))
	require.Equal(t, Groth16VKResourceType, vk.Type)
	require.Len(t, vk.Data.GammaABCG1, 2)
	require.True(t, strings.HasPrefix(vk.Data.AlphaG1, "0x"))

	var cfg KeylessConfiguration
	require.NoError(t, json.Unmarshal([]byte(configResourceJSON), &cfg))
	require.Equal(t, ConfigurationType, cfg.Type)
	require.Equal(t, uint16(93), cfg.Data.MaxCommittedEpkBytes)
	require.Equal(t, "10000000", cfg.Data.MaxExpHorizonSecs)

	pub, ok, err := cfg.TrainingWheelsPublicKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, []byte(pub), ed25519.PublicKeySize)
}

func TestTrainingWheelsPublicKeyAbsent(t *testing.T) {
	cfg := ConfigurationFromTrainingWheelsKey(nil)
	_, ok, err := cfg.TrainingWheelsPublicKey()
	require.NoError(t, err)
	require.False(t, ok)

	cfg.Data.TrainingWheelsPubkey.Vec = []string{"0xzz"}
	_, _, err = cfg.TrainingWheelsPublicKey()
	require.Error(t, err)

	cfg.Data.TrainingWheelsPubkey.Vec = []string{"0x1234"}
	_, _, err = cfg.TrainingWheelsPublicKey()
	require.ErrorContains(t, err, "bytes")
}

func TestConfigurationFromTrainingWheelsKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cfg := ConfigurationFromTrainingWheelsKey(pub)
	got, ok, err := cfg.TrainingWheelsPublicKey()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pub, got)
}

func TestWatcherRefresh(t *testing.T) {
	var failing atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/vk", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(vkResourceJSON))
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(configResourceJSON))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	watcher := NewWatcher(srv.URL+"/vk", srv.URL+"/config", slog.Default())
	require.Nil(t, watcher.VerificationKey())
	require.Nil(t, watcher.Configuration())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return watcher.VerificationKey() != nil && watcher.Configuration() != nil
	}, 2*time.Second, 5*time.Millisecond)

	// A fullnode outage keeps the last good snapshot in place.
	failing.Store(true)
	watcher.refreshOnce(ctx)
	require.NotNil(t, watcher.VerificationKey())
	require.NotNil(t, watcher.Configuration())
}
