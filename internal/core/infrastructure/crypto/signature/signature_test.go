package signature

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/address"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/keycore/pkg/types"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type fixture struct {
	svc    *SignatureService
	hasher *hash.HashService
	addrs  *address.AddressService
	key    *types.SecurePrivateKey
	raw    []byte
	pub    []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hasher := hash.NewHashService()
	addrs := address.NewAddressService(hasher)
	raw, err := hex.DecodeString(testKeyHex)
	require.NoError(t, err)
	key, err := types.NewSecurePrivateKey(raw)
	require.NoError(t, err)

	ecdsaKey, err := ethcrypto.ToECDSA(raw)
	require.NoError(t, err)

	return &fixture{
		svc:    NewSignatureService(hasher, addrs),
		hasher: hasher,
		addrs:  addrs,
		key:    key,
		raw:    raw,
		pub:    ethcrypto.CompressPubkey(&ecdsaKey.PublicKey),
	}
}

func TestSignVerify(t *testing.T) {
	f := newFixture(t)
	digest := f.hasher.Keccak256([]byte("transfer 1 coin"))

	sig, err := f.svc.Sign(f.key, digest)
	require.NoError(t, err)
	assert.LessOrEqual(t, sig.V(), byte(1))
	assert.Equal(t, sig.V()+27, sig.EthereumV())
	assert.Len(t, sig.Bytes(), types.TransactionSignatureLength)

	t.Run("确定性", func(t *testing.T) {
		again, err := f.svc.Sign(f.key, digest)
		require.NoError(t, err)
		assert.Equal(t, sig, again)
	})

	t.Run("验证通过", func(t *testing.T) {
		assert.True(t, f.svc.Verify(f.pub, digest, sig.Bytes()))
		uncompressed, err := ethcrypto.DecompressPubkey(f.pub)
		require.NoError(t, err)
		assert.True(t, f.svc.Verify(ethcrypto.FromECDSAPub(uncompressed), digest, sig.Bytes()))
	})

	t.Run("签名任意比特翻转都被拒绝", func(t *testing.T) {
		raw := sig.Bytes()
		for i := range raw {
			for bit := 0; bit < 8; bit++ {
				flipped := bytes.Clone(raw)
				flipped[i] ^= 1 << bit
				assert.False(t, f.svc.Verify(f.pub, digest, flipped), "byte %d bit %d", i, bit)
			}
		}
	})

	t.Run("摘要比特翻转被拒绝", func(t *testing.T) {
		for i := range digest {
			flipped := bytes.Clone(digest)
			flipped[i] ^= 0x01
			assert.False(t, f.svc.Verify(f.pub, flipped, sig.Bytes()))
		}
	})

	t.Run("错误公钥被拒绝", func(t *testing.T) {
		other := make([]byte, 32)
		other[31] = 2
		otherKey, err := ethcrypto.ToECDSA(other)
		require.NoError(t, err)
		assert.False(t, f.svc.Verify(ethcrypto.CompressPubkey(&otherKey.PublicKey), digest, sig.Bytes()))
	})

	t.Run("高S被拒绝", func(t *testing.T) {
		// (r, n-s, v^1) 在数学上同样有效，但不是规范形式
		assert.False(t, f.svc.Verify(f.pub, digest, highSVariant(sig.Bytes())))
	})

	t.Run("畸形输入不panic", func(t *testing.T) {
		assert.False(t, f.svc.Verify(nil, nil, nil))
		assert.False(t, f.svc.Verify(f.pub, digest, sig.Bytes()[:64]))
		assert.False(t, f.svc.Verify(f.pub, digest[:31], sig.Bytes()))
		assert.False(t, f.svc.Verify(f.pub[:32], digest, sig.Bytes()))
		assert.False(t, f.svc.Verify(f.pub, digest, make([]byte, 65)))
	})
}

func highSVariant(raw []byte) []byte {
	var s btcec.ModNScalar
	s.SetByteSlice(raw[32:64])
	negated := s.Negate().Bytes()

	out := bytes.Clone(raw)
	copy(out[32:64], negated[:])
	out[64] ^= 1
	return out
}

func TestSignRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Sign(f.key, []byte("short"))
	assert.ErrorIs(t, err, types.ErrMalformedInput)

	_, err = f.svc.Sign(nil, make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrKeyDestroyed)

	destroyed, err := types.NewSecurePrivateKey(f.raw)
	require.NoError(t, err)
	destroyed.Destroy()
	_, err = f.svc.Sign(destroyed, make([]byte, 32))
	assert.ErrorIs(t, err, types.ErrKeyDestroyed)
}

func TestInteropWithGoEthereum(t *testing.T) {
	f := newFixture(t)
	ecdsaKey, err := ethcrypto.ToECDSA(f.raw)
	require.NoError(t, err)
	digest := f.hasher.SHA256([]byte("interop"))

	sig, err := f.svc.Sign(f.key, digest)
	require.NoError(t, err)

	t.Run("与crypto.Sign逐字节一致", func(t *testing.T) {
		want, err := ethcrypto.Sign(digest, ecdsaKey)
		require.NoError(t, err)
		assert.Equal(t, want, sig.Bytes())
	})

	t.Run("Ecrecover恢复同一公钥", func(t *testing.T) {
		pub, err := ethcrypto.Ecrecover(digest, sig.Bytes())
		require.NoError(t, err)
		assert.Equal(t, ethcrypto.FromECDSAPub(&ecdsaKey.PublicKey), pub)
		assert.True(t, ethcrypto.VerifySignature(f.pub, digest, sig.Bytes()[:64]))
	})
}

func TestRecoverAndVerifyAddress(t *testing.T) {
	f := newFixture(t)
	digest := f.hasher.Keccak256([]byte("recover"))
	sig, err := f.svc.Sign(f.key, digest)
	require.NoError(t, err)

	recovered, err := f.svc.RecoverPublicKey(digest, sig.Bytes())
	require.NoError(t, err)
	assert.Equal(t, f.pub, recovered)

	for _, scheme := range []types.AddressScheme{types.AddressSchemeEthereum, types.AddressSchemeBitcoinP2PKH} {
		addr, err := f.addrs.PublicKeyToAddress(f.pub, scheme)
		require.NoError(t, err)
		assert.True(t, f.svc.VerifyAddress(addr, digest, sig.Bytes()), scheme.String())
	}

	t.Run("地址不匹配", func(t *testing.T) {
		other, err := types.ParseAddress("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
		require.NoError(t, err)
		assert.False(t, f.svc.VerifyAddress(other, digest, sig.Bytes()))
		assert.False(t, f.svc.VerifyAddress(types.Address{}, digest, sig.Bytes()))
	})

	t.Run("恢复码越界", func(t *testing.T) {
		bad := sig.Bytes()
		bad[64] = 27
		_, err := f.svc.RecoverPublicKey(digest, bad)
		assert.ErrorIs(t, err, types.ErrMalformedInput)
	})
}

func TestSignMessage(t *testing.T) {
	f := newFixture(t)
	msg := []byte("hello keycore")

	sig, err := f.svc.SignMessage(f.key, types.HashAlgorithmKeccak256, msg)
	require.NoError(t, err)
	assert.True(t, f.svc.VerifyMessage(f.pub, types.HashAlgorithmKeccak256, msg, sig.Bytes()))
	assert.False(t, f.svc.VerifyMessage(f.pub, types.HashAlgorithmSHA256, msg, sig.Bytes()))
	assert.False(t, f.svc.VerifyMessage(f.pub, types.HashAlgorithmKeccak256, []byte("hello keycorE"), sig.Bytes()))

	_, err = f.svc.SignMessage(f.key, types.HashAlgorithmSHA512, msg)
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
	assert.False(t, f.svc.VerifyMessage(f.pub, types.HashAlgorithmSHA512, msg, sig.Bytes()))
}
