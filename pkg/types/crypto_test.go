package types

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	halfOrderHex = "7fffffffffffffffffffffffffffffff5d576e7357a4501ddfe92f46681b20a0"
	oneKeyEthHex = "7e5f4552091a69125d5dfcb7b8c2659029395bdf"
	oneKeyH160   = "751e76e8199196d454941c45d1b3a323f1433bd6"
)

func TestTransactionSignature(t *testing.T) {
	r := bytes.Repeat([]byte{0x11}, 32)
	s := bytes.Repeat([]byte{0x22}, 32)

	t.Run("构造与线格式", func(t *testing.T) {
		sig, err := NewTransactionSignature(r, s, 1)
		require.NoError(t, err)

		wire := sig.Bytes()
		require.Len(t, wire, TransactionSignatureLength)
		assert.Equal(t, r, wire[:32])
		assert.Equal(t, s, wire[32:64])
		assert.Equal(t, byte(1), wire[64])
		assert.Equal(t, byte(28), sig.EthereumV())

		parsed, err := ParseTransactionSignature(wire)
		require.NoError(t, err)
		assert.Equal(t, sig, parsed)
	})

	t.Run("访问器返回副本", func(t *testing.T) {
		sig, err := NewTransactionSignature(r, s, 0)
		require.NoError(t, err)
		got := sig.R()
		got[0] = 0xff
		assert.Equal(t, r, sig.R())
		b := sig.Bytes()
		b[40] = 0
		assert.Equal(t, s, sig.S())
	})

	t.Run("拒绝非法分量", func(t *testing.T) {
		half := mustHex(t, halfOrderHex)
		aboveHalf := mustHex(t, halfOrderHex)
		aboveHalf[31]++

		_, err := NewTransactionSignature(r, half, 0)
		assert.NoError(t, err, "s == n/2 是低S")

		cases := map[string]func() error{
			"高S": func() error { _, err := NewTransactionSignature(r, aboveHalf, 0); return err },
			"r为零": func() error { _, err := NewTransactionSignature(make([]byte, 32), s, 0); return err },
			"s为零": func() error { _, err := NewTransactionSignature(r, make([]byte, 32), 0); return err },
			"r越界": func() error { _, err := NewTransactionSignature(mustHex(t, curveOrderHex), s, 0); return err },
			"v越界": func() error { _, err := NewTransactionSignature(r, s, 2); return err },
			"r长度": func() error { _, err := NewTransactionSignature(r[:31], s, 0); return err },
			"总长64": func() error { _, err := ParseTransactionSignature(append(r, s...)); return err },
		}
		for name, fn := range cases {
			t.Run(name, func(t *testing.T) {
				assert.ErrorIs(t, fn(), ErrMalformedInput)
			})
		}
	})
}

func TestEncryptedDataBinary(t *testing.T) {
	data := &EncryptedData{
		Algorithm:  AEADChaCha20Poly1305,
		Nonce:      bytes.Repeat([]byte{0xaa}, AEADNonceLength),
		Ciphertext: []byte("ciphertext"),
		Tag:        bytes.Repeat([]byte{0xbb}, AEADTagLength),
	}

	wire, err := data.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, EncryptedDataVersion, wire[0])
	assert.Equal(t, byte(AEADChaCha20Poly1305), wire[1])

	t.Run("往返", func(t *testing.T) {
		parsed, err := ParseEncryptedData(wire)
		require.NoError(t, err)
		assert.Equal(t, data, parsed)
	})

	t.Run("截断一个字节", func(t *testing.T) {
		_, err := ParseEncryptedData(wire[:len(wire)-1])
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("多余字节", func(t *testing.T) {
		_, err := ParseEncryptedData(append(bytes.Clone(wire), 0))
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("过短", func(t *testing.T) {
		_, err := ParseEncryptedData(wire[:10])
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("未知算法", func(t *testing.T) {
		bad := bytes.Clone(wire)
		bad[1] = 0x7f
		_, err := ParseEncryptedData(bad)
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("未知版本", func(t *testing.T) {
		bad := bytes.Clone(wire)
		bad[0] = 9
		_, err := ParseEncryptedData(bad)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("标签长度不符无法编码", func(t *testing.T) {
		bad := *data
		bad.Tag = bad.Tag[:AEADTagLength-1]
		_, err := bad.MarshalBinary()
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
}

func TestAddress(t *testing.T) {
	t.Run("以太坊EIP55渲染与解析", func(t *testing.T) {
		addr, err := NewAddress(AddressSchemeEthereum, mustHex(t, oneKeyEthHex))
		require.NoError(t, err)
		assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", addr.String())

		for _, s := range []string{addr.String(), "0x" + oneKeyEthHex} {
			parsed, err := ParseAddress(s)
			require.NoError(t, err)
			assert.True(t, addr.Equal(parsed))
		}

		_, err = ParseAddress("0x7e5F4552091A69125d5DfCb7b8C2659029395Bdf")
		assert.ErrorIs(t, err, ErrMalformedInput, "混合大小写必须符合校验")
	})

	t.Run("比特币P2PKH", func(t *testing.T) {
		addr, err := NewAddress(AddressSchemeBitcoinP2PKH, mustHex(t, oneKeyH160))
		require.NoError(t, err)
		assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr.String())

		parsed, err := ParseAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
		require.NoError(t, err)
		assert.True(t, addr.Equal(parsed))

		_, err = ParseAddress("1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMh")
		assert.ErrorIs(t, err, ErrMalformedInput)
	})

	t.Run("文本序列化", func(t *testing.T) {
		addr, err := NewAddress(AddressSchemeEthereum, mustHex(t, oneKeyEthHex))
		require.NoError(t, err)
		text, err := addr.MarshalText()
		require.NoError(t, err)
		var back Address
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, addr, back)
	})

	t.Run("非法负载", func(t *testing.T) {
		_, err := NewAddress(AddressSchemeEthereum, make([]byte, 19))
		assert.ErrorIs(t, err, ErrMalformedInput)
		_, err = NewAddress(AddressSchemeUnknown, make([]byte, 20))
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestAlgorithmNames(t *testing.T) {
	for _, alg := range []HashAlgorithm{HashAlgorithmSHA256, HashAlgorithmSHA512, HashAlgorithmKeccak256, HashAlgorithmKeccak512} {
		parsed, err := ParseHashAlgorithm(alg.String())
		require.NoError(t, err)
		assert.Equal(t, alg, parsed)
	}
	parsed, err := ParseHashAlgorithm("SHA-256")
	require.NoError(t, err)
	assert.Equal(t, HashAlgorithmSHA256, parsed)
	assert.Equal(t, 64, HashAlgorithmKeccak512.Size())

	_, err = ParseHashAlgorithm("md5")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	_, err = ParseAEADAlgorithm("des")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	_, err = ParsePasswordAlgorithm("bcrypt")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	assert.Equal(t, "argon2id", PasswordHash("$argon2id$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA").Identifier())
	assert.Equal(t, "", PasswordHash("argon2id").Identifier())
}

func TestCryptoErrorKinds(t *testing.T) {
	cause := errors.New("io")
	err := fmt.Errorf("outer: %w", NewCryptoError("fill", ErrEntropyUnavailable, cause))

	assert.ErrorIs(t, err, ErrEntropyUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindEntropyUnavailable, KindOf(err))
	assert.True(t, IsRetryable(err))

	var ce *CryptoError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "fill", ce.Op)

	assert.Equal(t, KindOK, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(cause))
	assert.Equal(t, KindInvalidKeyFormat, KindOf(ErrKeyDestroyed))
	assert.False(t, IsRetryable(Errorf("decrypt", ErrAuthenticationFailed, "tag")))
	assert.Equal(t, "decrypt: authentication failed", NewCryptoError("decrypt", ErrAuthenticationFailed, nil).Error())
}
