package hash

import (
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weisyn/keycore/pkg/types"
)

func TestHashKnownVectors(t *testing.T) {
	hashService := NewHashService()

	testCases := []struct {
		name     string
		alg      types.HashAlgorithm
		input    string
		expected string
	}{
		{"SHA256 abc", types.HashAlgorithmSHA256, "abc",
			"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
		{"SHA256 空输入", types.HashAlgorithmSHA256, "",
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"SHA512 abc", types.HashAlgorithmSHA512, "abc",
			"ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
		{"Keccak256 空输入", types.HashAlgorithmKeccak256, "",
			"c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{"Keccak512 空输入", types.HashAlgorithmKeccak512, "",
			"0eab42de4c3ceb9235fc91acffe746b29c29a8c366b7c60e4e67c466f36a4304c00fa9caf9d87976ba469bcbe06713b435f091ef2769fb160cdab33d3670680e"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			digest, err := hashService.Hash(tc.alg, []byte(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, digest.Hex())
			assert.Len(t, digest, tc.alg.Size())
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	s := NewHashService()
	data := []byte("你好，世界")

	viaHash := func(alg types.HashAlgorithm) []byte {
		d, err := s.Hash(alg, data)
		require.NoError(t, err)
		return d
	}

	assert.Equal(t, viaHash(types.HashAlgorithmSHA256), s.SHA256(data))
	assert.Equal(t, viaHash(types.HashAlgorithmSHA512), s.SHA512(data))
	assert.Equal(t, viaHash(types.HashAlgorithmKeccak256), s.Keccak256(data))
	assert.Equal(t, viaHash(types.HashAlgorithmKeccak512), s.Keccak512(data))
	assert.Equal(t, s.SHA256(s.SHA256(data)), s.DoubleSHA256(data))
	assert.Equal(t, s.RIPEMD160(s.SHA256(data)), s.Hash160(data))
	assert.Len(t, s.RIPEMD160(data), 20)
}

func TestHash160Generator(t *testing.T) {
	// 生成元的压缩公钥，对应私钥 1
	pub, err := hex.DecodeString("0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err)
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(NewHashService().Hash160(pub)))
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewHashService().Hash(types.HashAlgorithmUnknown, []byte("x"))
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
	_, err = NewHashService().Hash(types.HashAlgorithm(99), nil)
	assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
}

func TestConcurrentHashing(t *testing.T) {
	s := NewHashService()
	want := s.Keccak256([]byte("concurrent"))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Hash(types.HashAlgorithmKeccak256, []byte("concurrent"))
			assert.NoError(t, err)
			assert.Equal(t, want, []byte(got))
		}()
	}
	wg.Wait()
}

func TestConstantTimeCompare(t *testing.T) {
	assert.True(t, ConstantTimeCompare([]byte{1, 2}, []byte{1, 2}))
	assert.False(t, ConstantTimeCompare([]byte{1, 2}, []byte{1, 3}))
	assert.False(t, NewHashService().ConstantTimeCompare([]byte{1}, []byte{1, 2}))
}

func TestMessageDigest(t *testing.T) {
	s := NewHashService()

	t.Run("32字节算法", func(t *testing.T) {
		d, err := s.MessageDigest(types.HashAlgorithmKeccak256, []byte("msg"))
		require.NoError(t, err)
		assert.Equal(t, s.Keccak256([]byte("msg")), []byte(d))

		d, err = s.MessageDigest(types.HashAlgorithmSHA256, []byte("msg"))
		require.NoError(t, err)
		assert.Len(t, d, 32)
	})

	t.Run("64字节算法被拒绝", func(t *testing.T) {
		_, err := s.MessageDigest(types.HashAlgorithmSHA512, []byte("msg"))
		assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
		_, err = s.MessageDigest(types.HashAlgorithmUnknown, []byte("msg"))
		assert.ErrorIs(t, err, types.ErrUnsupportedAlgorithm)
	})
}
