package crypto

import "github.com/weisyn/keycore/pkg/types"

// SignatureManager 定义 secp256k1 ECDSA 签名接口
//
// 签名格式为 65 字节 r‖s‖v：RFC6979 确定性随机数，低S，v ∈ {0,1}。
// 验签对任何不一致只返回 false，不 panic。
type SignatureManager interface {
	// Sign 对32字节摘要签名
	//
	// 摘要长度不符返回 ErrMalformedInput；恢复标识无法唯一确定时
	// 返回 ErrAmbiguousRecovery。
	Sign(key *types.SecurePrivateKey, digest []byte) (types.TransactionSignature, error)

	// Verify 用33或65字节公钥验证65字节签名
	Verify(publicKey, digest, signature []byte) bool

	// VerifyAddress 从签名恢复公钥并与地址比较
	VerifyAddress(address types.Address, digest, signature []byte) bool

	// RecoverPublicKey 从签名恢复33字节压缩公钥
	RecoverPublicKey(digest, signature []byte) ([]byte, error)

	// SignMessage 先按 algorithm 计算摘要再签名（仅接受32字节摘要的算法）
	SignMessage(key *types.SecurePrivateKey, algorithm types.HashAlgorithm, message []byte) (types.TransactionSignature, error)

	// VerifyMessage 对应 SignMessage 的验证
	VerifyMessage(publicKey []byte, algorithm types.HashAlgorithm, message, signature []byte) bool
}
