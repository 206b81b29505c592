// Package hash 提供哈希计算服务
package hash

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	gohash "hash"

	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // 比特币地址需要 RIPEMD-160
	"golang.org/x/crypto/sha3"
)

// 确保HashService实现了cryptointf.HashManager接口
var _ cryptointf.HashManager = (*HashService)(nil)

// HashService 提供哈希计算功能
//
// 无状态，每次调用新建哈希器，可并发使用。
type HashService struct{}

// NewHashService 创建新的哈希服务
func NewHashService() *HashService {
	return &HashService{}
}

// newHasher 按算法创建哈希器
func newHasher(alg types.HashAlgorithm) (gohash.Hash, bool) {
	switch alg {
	case types.HashAlgorithmSHA256:
		return sha256.New(), true
	case types.HashAlgorithmSHA512:
		return sha512.New(), true
	case types.HashAlgorithmKeccak256:
		return sha3.NewLegacyKeccak256(), true
	case types.HashAlgorithmKeccak512:
		return sha3.NewLegacyKeccak512(), true
	default:
		return nil, false
	}
}

// Hash 按算法计算摘要
func (s *HashService) Hash(alg types.HashAlgorithm, data []byte) (types.Digest, error) {
	h, ok := newHasher(alg)
	if !ok {
		return nil, types.Errorf("hash", types.ErrUnsupportedAlgorithm, "algorithm %d", uint8(alg))
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// MessageDigest 计算待签名消息的32字节摘要
//
// 仅接受输出32字节的算法（SHA-256、Keccak256），签名从不直接处理原始消息。
func (s *HashService) MessageDigest(alg types.HashAlgorithm, payload []byte) (types.Digest, error) {
	if alg.Size() != types.SignDigestLength {
		return nil, types.Errorf("message digest", types.ErrUnsupportedAlgorithm, "%s does not produce a %d-byte digest", alg, types.SignDigestLength)
	}
	return s.Hash(alg, payload)
}

// SHA256 计算数据的SHA256哈希值
func (s *HashService) SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// SHA512 计算数据的SHA512哈希值
func (s *HashService) SHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

// Keccak256 计算数据的Keccak256哈希值（以太坊使用的填充方式）
func (s *HashService) Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Keccak512 计算数据的Keccak512哈希值
func (s *HashService) Keccak512(data []byte) []byte {
	h := sha3.NewLegacyKeccak512()
	h.Write(data)
	return h.Sum(nil)
}

// RIPEMD160 计算数据的RIPEMD160哈希值
func (s *HashService) RIPEMD160(data []byte) []byte {
	h := ripemd160.New()
	h.Write(data)
	return h.Sum(nil)
}

// DoubleSHA256 计算数据的双重SHA256哈希值
func (s *HashService) DoubleSHA256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Hash160 计算 RIPEMD160(SHA256(data))，比特币公钥哈希
func (s *HashService) Hash160(data []byte) []byte {
	return s.RIPEMD160(s.SHA256(data))
}

// ConstantTimeCompare 常量时间比较两个字节切片，长度不同直接返回 false
func (s *HashService) ConstantTimeCompare(a, b []byte) bool {
	return ConstantTimeCompare(a, b)
}

// ConstantTimeCompare 常量时间比较两个字节切片
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
