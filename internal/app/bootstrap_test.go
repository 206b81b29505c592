package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	"github.com/weisyn/keycore/pkg/types"
)

func quietConfig() *types.AppConfig {
	return &types.AppConfig{
		Log: &types.UserLogConfig{Level: types.StringPtr("error")},
	}
}

func TestStartDefaults(t *testing.T) {
	app, err := Start(context.Background(), WithAppConfig(quietConfig()))
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.StopWithTimeout()) }()

	s := app.Services()
	require.NotNil(t, s.Keys)
	require.NotNil(t, s.Options)
	assert.Equal(t, types.AddressSchemeEthereum, s.Options.AddressScheme)

	key, err := s.Keys.Generate()
	require.NoError(t, err)
	defer key.Destroy()

	digest := s.Hashes.Keccak256([]byte("bootstrap"))
	sig, err := s.Signatures.Sign(key, digest)
	require.NoError(t, err)
	pub, err := s.Keys.DerivePublicKey(key)
	require.NoError(t, err)
	assert.True(t, s.Signatures.Verify(pub, digest, sig.Bytes()))
}

func TestStartWithMetricsAndEntropy(t *testing.T) {
	cfg := quietConfig()
	cfg.Crypto = &types.UserCryptoConfig{
		EnableMetrics: types.BoolPtr(true),
		AddressScheme: types.StringPtr("bitcoin-p2pkh"),
	}
	reg := prometheus.NewRegistry()

	app, err := Start(context.Background(),
		WithAppConfig(cfg),
		WithRegisterer(reg),
		WithEntropy(entropy.NewSystem(entropy.DefaultTimeout)),
	)
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.StopWithTimeout()) }()

	key, err := app.Services().Keys.Generate()
	require.NoError(t, err)
	defer key.Destroy()

	addr, err := app.Services().Keys.DeriveAddress(key)
	require.NoError(t, err)
	assert.Equal(t, types.AddressSchemeBitcoinP2PKH, addr.Scheme())

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "keycore_crypto_operations_total")
}

func TestStartInvalidConfig(t *testing.T) {
	cfg := quietConfig()
	cfg.Crypto = &types.UserCryptoConfig{DefaultAEAD: types.StringPtr("rot13")}

	_, err := Start(context.Background(), WithAppConfig(cfg))
	assert.Error(t, err)
}
