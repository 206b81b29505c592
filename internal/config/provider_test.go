package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keycore/configs"
	"github.com/weisyn/keycore/pkg/types"
)

// TestGetEnvironment 测试 GetEnvironment() 方法
func TestGetEnvironment(t *testing.T) {
	cases := []struct {
		name string
		env  *string
		want string
	}{
		{"显式配置 dev", types.StringPtr("dev"), "dev"},
		{"显式配置 test", types.StringPtr("TEST"), "test"},
		{"未配置时默认为 prod", nil, "prod"},
		{"无效值默认为 prod", types.StringPtr("invalid"), "prod"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider, err := NewProvider(&types.AppConfig{Environment: tc.env})
			require.NoError(t, err)
			assert.Equal(t, tc.want, provider.GetEnvironment())
		})
	}
}

func TestNewProvider(t *testing.T) {
	t.Run("nil配置使用默认值", func(t *testing.T) {
		provider, err := NewProvider(nil)
		require.NoError(t, err)
		assert.Equal(t, "info", provider.GetLog().Level)
		assert.Equal(t, 5*time.Second, provider.GetCrypto().EntropyTimeout)
		assert.Nil(t, provider.GetAppConfig())
	})

	t.Run("非法密钥核心配置返回错误", func(t *testing.T) {
		_, err := NewProvider(&types.AppConfig{
			Crypto: &types.UserCryptoConfig{DefaultAEAD: types.StringPtr("rot13")},
		})
		assert.Error(t, err)
	})

	t.Run("模块提供者", func(t *testing.T) {
		out, err := ProvideConfigServices(ConfigParams{AppOptions: NewAppOptions(&types.AppConfig{
			Log: &types.UserLogConfig{Level: types.StringPtr("debug")},
		})})
		require.NoError(t, err)
		assert.Equal(t, "debug", out.Provider.GetLog().Level)
	})
}

func TestLoadAppConfig(t *testing.T) {
	t.Run("空路径返回空配置", func(t *testing.T) {
		cfg, err := LoadAppConfig("")
		require.NoError(t, err)
		assert.NotNil(t, cfg)
	})

	t.Run("读取JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "keycore.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"environment": "dev",
			"log": {"level": "warn"},
			"crypto": {"address_scheme": "bitcoin-p2pkh", "argon2": {"iterations": 4}}
		}`), 0o600))

		cfg, err := LoadAppConfig(path)
		require.NoError(t, err)
		provider, err := NewProvider(cfg)
		require.NoError(t, err)

		assert.Equal(t, "dev", provider.GetEnvironment())
		assert.Equal(t, "warn", provider.GetLog().Level)
		assert.Equal(t, types.AddressSchemeBitcoinP2PKH, provider.GetCrypto().AddressScheme)
		assert.Equal(t, uint32(4), provider.GetCrypto().Password.Argon2.Iterations)
	})

	t.Run("文件不存在或格式错误", func(t *testing.T) {
		_, err := LoadAppConfig(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)

		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err = LoadAppConfig(path)
		assert.Error(t, err)
	})
}

func TestEmbeddedDefaultConfig(t *testing.T) {
	cfg, err := ParseAppConfig(configs.GetDefaultConfig())
	require.NoError(t, err)

	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, "warn", provider.GetLog().Level)
	assert.Equal(t, types.AddressSchemeEthereum, provider.GetCrypto().AddressScheme)
	assert.Equal(t, types.AEADAES256GCM, provider.GetCrypto().DefaultAEAD)
	assert.Equal(t, uint32(64*1024), provider.GetCrypto().Password.Argon2.MemoryKiB)

	_, err = ParseAppConfig([]byte("{not json"))
	assert.Error(t, err)
}
