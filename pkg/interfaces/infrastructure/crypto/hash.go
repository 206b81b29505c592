package crypto

import "github.com/weisyn/keycore/pkg/types"

// HashManager 定义哈希服务接口
//
// 纯函数，无缓存，无共享状态。
type HashManager interface {
	// Hash 按算法计算摘要，未知算法返回 ErrUnsupportedAlgorithm
	Hash(algorithm types.HashAlgorithm, data []byte) (types.Digest, error)

	// MessageDigest 计算32字节签名摘要，只接受 SHA-256 与 Keccak256
	MessageDigest(algorithm types.HashAlgorithm, payload []byte) (types.Digest, error)

	// SHA256 计算SHA-256
	SHA256(data []byte) []byte

	// SHA512 计算SHA-512
	SHA512(data []byte) []byte

	// Keccak256 计算以太坊使用的 Keccak-256（非 NIST SHA3）
	Keccak256(data []byte) []byte

	// Keccak512 计算 Keccak-512
	Keccak512(data []byte) []byte

	// DoubleSHA256 计算 SHA256(SHA256(data))
	DoubleSHA256(data []byte) []byte

	// RIPEMD160 计算 RIPEMD-160
	RIPEMD160(data []byte) []byte

	// Hash160 计算 RIPEMD160(SHA256(data))
	Hash160(data []byte) []byte

	// ConstantTimeCompare 常量时间比较
	ConstantTimeCompare(a, b []byte) bool
}
