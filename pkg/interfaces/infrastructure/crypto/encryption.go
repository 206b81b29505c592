package crypto

import "github.com/weisyn/keycore/pkg/types"

// EncryptionManager 定义认证加密接口
//
// 对称部分支持 AES-256-GCM 与 ChaCha20-Poly1305，每次加密使用新的12字节随机数。
// 解密失败时不返回任何部分明文。
type EncryptionManager interface {
	// Encrypt 使用32字节密钥加密
	Encrypt(algorithm types.AEADAlgorithm, key, plaintext []byte) (*types.EncryptedData, error)

	// Decrypt 解密并校验标签
	//
	// 结构错误返回 ErrMalformedInput，未知算法返回 ErrUnsupportedAlgorithm，
	// 标签不匹配返回 ErrAuthenticationFailed。
	Decrypt(key []byte, data *types.EncryptedData) ([]byte, error)

	// EncryptWithPassword 以 Argon2id 派生密钥加密，返回自描述的 JSON 信封
	EncryptWithPassword(algorithm types.AEADAlgorithm, password, plaintext []byte) ([]byte, error)

	// DecryptWithPassword 解析信封并解密
	DecryptWithPassword(password, sealed []byte) ([]byte, error)

	// SealToPublicKey 使用 ECIES 对 secp256k1 公钥加密
	SealToPublicKey(publicKey, plaintext []byte) ([]byte, error)

	// OpenWithPrivateKey 使用私钥解开 ECIES 密文
	OpenWithPrivateKey(key *types.SecurePrivateKey, sealed []byte) ([]byte, error)
}
