package key

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/address"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/keycore/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestManager(source *entropy.Source, opts ...Option) *KeyManager {
	return NewKeyManager(source, address.NewAddressService(hash.NewHashService()), opts...)
}

func keyOne() []byte {
	raw := make([]byte, 32)
	raw[31] = 1
	return raw
}

// scriptedReader 先返回 prefix，再无限返回 fill
type scriptedReader struct {
	prefix []byte
	fill   byte
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	n := copy(p, r.prefix)
	r.prefix = r.prefix[n:]
	for i := n; i < len(p); i++ {
		p[i] = r.fill
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestGenerate(t *testing.T) {
	t.Run("生成的私钥全部有效", func(t *testing.T) {
		km := newTestManager(nil)
		for i := 0; i < 10000; i++ {
			k, err := km.Generate()
			require.NoError(t, err)
			require.NoError(t, k.Use(func(raw []byte) error {
				return types.ValidatePrivateKeyBytes(raw)
			}))
			k.Destroy()
		}
	})

	t.Run("越界标量被重新采样", func(t *testing.T) {
		// 第一次全零，第二次全 0xff（≥ n），之后为 0x11
		prefix := append(make([]byte, 32), bytes.Repeat([]byte{0xff}, 32)...)
		km := newTestManager(entropy.New(&scriptedReader{prefix: prefix, fill: 0x11}, time.Second))

		k, err := km.Generate()
		require.NoError(t, err)
		raw, err := k.Export()
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{0x11}, 32), raw)
	})

	t.Run("重试次数有上限", func(t *testing.T) {
		km := newTestManager(entropy.New(&scriptedReader{fill: 0xff}, time.Second))
		_, err := km.Generate()
		assert.ErrorIs(t, err, types.ErrEntropyUnavailable)
	})

	t.Run("熵源失败", func(t *testing.T) {
		km := newTestManager(entropy.New(failingReader{}, time.Second))
		_, err := km.Generate()
		assert.ErrorIs(t, err, types.ErrEntropyUnavailable)
		assert.True(t, types.IsRetryable(err))
	})
}

func TestImport(t *testing.T) {
	km := newTestManager(nil)

	t.Run("导入导出往返", func(t *testing.T) {
		raw, _ := hex.DecodeString("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
		k, err := km.Import(raw)
		require.NoError(t, err)
		out, err := k.Export()
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})

	tests := []struct {
		name string
		raw  []byte
	}{
		{"空", nil},
		{"31字节", make([]byte, 31)},
		{"33字节", make([]byte, 33)},
		{"零", make([]byte, 32)},
		{"等于阶n", mustDecode(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := km.Import(tt.raw)
			assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
			assert.ErrorIs(t, km.ValidatePrivateKey(tt.raw), types.ErrInvalidKeyFormat)
		})
	}

	t.Run("n-1有效", func(t *testing.T) {
		_, err := km.Import(mustDecode(t, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364140"))
		assert.NoError(t, err)
	})
}

func TestDerivePublicKeyAndAddress(t *testing.T) {
	km := newTestManager(nil)
	k, err := km.Import(keyOne())
	require.NoError(t, err)

	compressed, err := km.DerivePublicKey(k)
	require.NoError(t, err)
	assert.Equal(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", hex.EncodeToString(compressed))

	uncompressed, err := km.DeriveUncompressedPublicKey(k)
	require.NoError(t, err)
	assert.Len(t, uncompressed, 65)

	addr, err := km.DeriveAddress(k)
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr.String())

	btc, err := km.DeriveAddressWithScheme(k, types.AddressSchemeBitcoinP2PKH)
	require.NoError(t, err)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", btc.String())

	t.Run("配置比特币方案", func(t *testing.T) {
		km := newTestManager(nil, WithAddressScheme(types.AddressSchemeBitcoinP2PKH))
		addr, err := km.DeriveAddress(k)
		require.NoError(t, err)
		assert.Equal(t, btc, addr)
	})

	t.Run("与go-ethereum一致", func(t *testing.T) {
		generated, err := km.Generate()
		require.NoError(t, err)
		raw, err := generated.Export()
		require.NoError(t, err)
		ecdsaKey, err := ethcrypto.ToECDSA(raw)
		require.NoError(t, err)

		addr, err := km.DeriveAddress(generated)
		require.NoError(t, err)
		assert.Equal(t, ethcrypto.PubkeyToAddress(ecdsaKey.PublicKey).Bytes(), addr.Bytes())

		pub, err := km.DerivePublicKey(generated)
		require.NoError(t, err)
		assert.Equal(t, ethcrypto.CompressPubkey(&ecdsaKey.PublicKey), pub)
	})

	t.Run("销毁后不可用", func(t *testing.T) {
		k2, err := km.Import(keyOne())
		require.NoError(t, err)
		k2.Destroy()
		_, err = km.DerivePublicKey(k2)
		assert.ErrorIs(t, err, types.ErrKeyDestroyed)
		_, err = km.DeriveAddress(nil)
		assert.ErrorIs(t, err, types.ErrKeyDestroyed)
	})
}

func TestPublicKeyHelpers(t *testing.T) {
	km := newTestManager(nil)
	compressed := mustDecode(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")

	uncompressed, err := km.DecompressPublicKey(compressed)
	require.NoError(t, err)
	assert.Equal(t, byte(0x04), uncompressed[0])

	back, err := km.CompressPublicKey(uncompressed)
	require.NoError(t, err)
	assert.Equal(t, compressed, back)

	assert.NoError(t, km.ValidatePublicKey(compressed))
	assert.ErrorIs(t, km.ValidatePublicKey(uncompressed[1:]), types.ErrInvalidKeyFormat)

	t.Run("解析十六进制", func(t *testing.T) {
		parsed, err := km.ParsePublicKeyString("0x" + strings.ToUpper(hex.EncodeToString(compressed)))
		require.NoError(t, err)
		assert.Equal(t, compressed, parsed)

		_, err = km.ParsePublicKeyString("zz")
		assert.ErrorIs(t, err, types.ErrMalformedInput)
		_, err = km.ParsePublicKeyString(hex.EncodeToString(compressed[:32]))
		assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
	})
}

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []uint32
		ok   bool
	}{
		{"默认路径", DefaultDerivationPath, []uint32{0x8000002c, 0x8000003c, 0x80000000, 0, 0}, true},
		{"h标记", "m/44h/0H/1", []uint32{0x8000002c, 0x80000000, 1}, true},
		{"根", "m", []uint32{}, true},
		{"缺少m", "44'/60'", nil, false},
		{"空段", "m//0", nil, false},
		{"非数字", "m/a", nil, false},
		{"索引溢出", "m/2147483648", nil, false},
		{"负数", "m/-1", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDerivationPath(tt.path)
			if !tt.ok {
				assert.ErrorIs(t, err, types.ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeedPhrase(t *testing.T) {
	km := newTestManager(nil)

	t.Run("种子与go-bip39一致", func(t *testing.T) {
		seed := mnemonicToSeed([]byte(testMnemonic), []byte("TREZOR"))
		assert.Equal(t, bip39.NewSeed(testMnemonic, "TREZOR"), seed)
	})

	t.Run("已知派生向量", func(t *testing.T) {
		phrase, err := km.ImportSeedPhrase([]byte(testMnemonic))
		require.NoError(t, err)
		defer phrase.Destroy()

		k, err := km.DeriveFromSeedPhrase(phrase, nil, "")
		require.NoError(t, err)
		addr, err := km.DeriveAddress(k)
		require.NoError(t, err)
		assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addr.String())

		// 口令改变派生结果
		k2, err := km.DeriveFromSeedPhrase(phrase, []byte("pass"), DefaultDerivationPath)
		require.NoError(t, err)
		addr2, err := km.DeriveAddress(k2)
		require.NoError(t, err)
		assert.NotEqual(t, addr, addr2)
	})

	t.Run("生成助记词", func(t *testing.T) {
		for strength, words := range map[int]int{128: 12, 160: 15, 192: 18, 224: 21, 256: 24} {
			phrase, err := km.GenerateSeedPhrase(strength)
			require.NoError(t, err)
			assert.Equal(t, words, phrase.WordCount())
			_, err = km.DeriveFromSeedPhrase(phrase, nil, "m/0")
			assert.NoError(t, err)
			phrase.Destroy()
		}
	})

	t.Run("非法强度", func(t *testing.T) {
		for _, strength := range []int{0, 64, 129, 288} {
			_, err := km.GenerateSeedPhrase(strength)
			assert.ErrorIs(t, err, types.ErrMalformedInput)
		}
	})

	t.Run("熵源失败", func(t *testing.T) {
		km := newTestManager(entropy.New(failingReader{}, time.Second))
		_, err := km.GenerateSeedPhrase(128)
		assert.ErrorIs(t, err, types.ErrEntropyUnavailable)
	})

	t.Run("销毁后派生失败", func(t *testing.T) {
		phrase, err := km.ImportSeedPhrase([]byte(testMnemonic))
		require.NoError(t, err)
		phrase.Destroy()
		_, err = km.DeriveFromSeedPhrase(phrase, nil, "")
		assert.ErrorIs(t, err, types.ErrKeyDestroyed)
	})

	t.Run("非法路径", func(t *testing.T) {
		phrase, err := km.ImportSeedPhrase([]byte(testMnemonic))
		require.NoError(t, err)
		_, err = km.DeriveFromSeedPhrase(phrase, nil, "x/0")
		assert.ErrorIs(t, err, types.ErrMalformedInput)
	})
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
