package address

import (
	"encoding/hex"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/keycore/pkg/types"
)

// 私钥 0x…01 对应的公钥（生成元 G）
const (
	generatorCompressed   = "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	generatorUncompressed = "0479be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798" +
		"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8"
)

func decode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestPublicKeyToAddress(t *testing.T) {
	svc := NewAddressService(hash.NewHashService())

	tests := []struct {
		name   string
		pub    string
		scheme types.AddressScheme
		want   string
	}{
		{"以太坊_压缩公钥", generatorCompressed, types.AddressSchemeEthereum, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"},
		{"以太坊_未压缩公钥", generatorUncompressed, types.AddressSchemeEthereum, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"},
		{"比特币_压缩公钥", generatorCompressed, types.AddressSchemeBitcoinP2PKH, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
		{"比特币_未压缩公钥按压缩形式推导", generatorUncompressed, types.AddressSchemeBitcoinP2PKH, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := svc.PublicKeyToAddress(decode(t, tt.pub), tt.scheme)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addr.String())
			assert.Equal(t, tt.scheme, addr.Scheme())
		})
	}

	t.Run("与go-ethereum推导一致", func(t *testing.T) {
		priv, err := ethcrypto.HexToECDSA("0000000000000000000000000000000000000000000000000000000000000001")
		require.NoError(t, err)
		want := ethcrypto.PubkeyToAddress(priv.PublicKey).Hex()
		require.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", want)

		addr, err := svc.PublicKeyToAddress(ethcrypto.FromECDSAPub(&priv.PublicKey), types.AddressSchemeEthereum)
		require.NoError(t, err)
		assert.Equal(t, want, addr.String())
	})

	t.Run("未知方案", func(t *testing.T) {
		_, err := svc.PublicKeyToAddress(decode(t, generatorCompressed), types.AddressSchemeUnknown)
		assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
	})

	t.Run("非法公钥", func(t *testing.T) {
		_, err := svc.PublicKeyToAddress(decode(t, generatorUncompressed)[1:], types.AddressSchemeEthereum)
		assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
		_, err = svc.PublicKeyToAddress(nil, types.AddressSchemeEthereum)
		assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
	})
}

func TestValidateAddress(t *testing.T) {
	svc := NewAddressService(hash.NewHashService())

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"EIP55校验正确", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", true},
		{"全小写", "0x7e5f4552091a69125d5dfcd7b8c2659029395bdf", true},
		{"EIP55大小写错误", "0x7e5F4552091A69125d5DfCb7b8C2659029395Bdf", false},
		{"长度错误", "0x7E5F4552091A69125d5DfCb7b8C2659029395B", false},
		{"比特币地址", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", true},
		{"比特币校验和错误", "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMj", false},
		{"空字符串", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, svc.ValidateAddress(tt.input))
		})
	}

	t.Run("解析后往返", func(t *testing.T) {
		addr, err := svc.ParseAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
		require.NoError(t, err)
		assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(addr.Bytes()))
	})
}
