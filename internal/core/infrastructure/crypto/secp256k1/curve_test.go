package secp256k1

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/keycore/pkg/types"
)

func testHash() []byte {
	return bytes.Repeat([]byte{0x5a}, 32)
}

func TestSignRecoverVerify(t *testing.T) {
	c := NewCurve()
	raw, _ := hex.DecodeString("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	priv, err := c.PrivateKey(raw)
	require.NoError(t, err)
	defer priv.Zero()

	r, s, recID, err := c.SignRecoverable(priv, testHash())
	require.NoError(t, err)
	assert.LessOrEqual(t, recID, byte(3))

	// 确定性签名
	r2, s2, recID2, err := c.SignRecoverable(priv, testHash())
	require.NoError(t, err)
	assert.Equal(t, r, r2)
	assert.Equal(t, s, s2)
	assert.Equal(t, recID, recID2)

	pub, err := c.RecoverPublicKey(testHash(), r[:], s[:], recID)
	require.NoError(t, err)
	assert.True(t, pub.IsEqual(priv.PubKey()))
	assert.True(t, c.Verify(priv.PubKey(), testHash(), r[:], s[:]))

	t.Run("错误哈希不通过", func(t *testing.T) {
		other := bytes.Repeat([]byte{0x01}, 32)
		assert.False(t, c.Verify(priv.PubKey(), other, r[:], s[:]))
	})

	t.Run("高S不通过", func(t *testing.T) {
		// n - s
		var scalar btcec.ModNScalar
		scalar.SetBytes(&s)
		neg := scalar.Negate().Bytes()
		assert.False(t, c.Verify(priv.PubKey(), testHash(), r[:], neg[:]))
	})

	t.Run("非法长度", func(t *testing.T) {
		_, _, _, err := c.SignRecoverable(priv, []byte{1, 2, 3})
		assert.ErrorIs(t, err, types.ErrMalformedInput)
		_, err = c.RecoverPublicKey(testHash(), r[:], s[:], 4)
		assert.ErrorIs(t, err, types.ErrMalformedInput)
		assert.False(t, c.Verify(priv.PubKey(), testHash()[:31], r[:], s[:]))
		assert.False(t, c.Verify(nil, testHash(), r[:], s[:]))
	})
}

func TestParsePublicKey(t *testing.T) {
	c := NewCurve()
	compressed, _ := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")

	pub, err := c.ParsePublicKey(compressed)
	require.NoError(t, err)
	uncompressed := pub.SerializeUncompressed()

	_, err = c.ParsePublicKey(uncompressed)
	assert.NoError(t, err)

	hybrid := bytes.Clone(uncompressed)
	hybrid[0] = 0x06
	_, err = c.ParsePublicKey(hybrid)
	assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)

	_, err = c.ParsePublicKey(append([]byte{0x02}, bytes.Repeat([]byte{0xff}, 32)...))
	assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)

	_, err = c.ParsePublicKey(compressed[:32])
	assert.ErrorIs(t, err, types.ErrInvalidKeyFormat)
}
