// Package crypto 提供密钥核心的服务接口定义
//
// 🔑 **密钥管理服务 (Key Management Service)**
//
// 本文件定义了密钥生命周期接口，专注于：
// - secp256k1私钥生成与导入：结果总是位于 [1, n-1] 的合法标量
// - 安全容器：私钥、助记词只以 SecurePrivateKey / SecureSeedPhrase 的形式流转
// - 公钥与地址推导：压缩/未压缩公钥、以太坊与比特币 P2PKH 地址
// - 助记词：BIP39 生成与校验、BIP32/BIP44 派生
//
// 🔗 **组件关系**
// - KeyManager：产出安全容器，供 SignatureManager / EncryptionManager 使用
// - 与AddressManager：配合进行公钥到地址的转换
package crypto

import "github.com/weisyn/keycore/pkg/types"

// KeyManager 定义密钥管理相关接口
//
// 🎯 **密钥标准**：
// - **椭圆曲线**：secp256k1
// - **私钥格式**：32字节大端标量，范围 [1, n-1]
// - **公钥格式**：压缩(33字节)与未压缩(65字节)
//
// 🔧 **密钥推导流程**：
// 熵 → 私钥(32字节) → 公钥(33/65字节) → 地址
//
// 所有方法无状态，可并发调用；返回的安全容器由调用方独占，用完必须 Destroy。
type KeyManager interface {
	// Generate 生成新的私钥
	//
	// 熵源失败或超时返回 ErrEntropyUnavailable；越界标量在内部重新生成，
	// 不会返回非法私钥。
	Generate() (*types.SecurePrivateKey, error)

	// Import 导入32字节私钥
	//
	// 长度不符或标量越界返回 ErrInvalidKeyFormat，不截断不补齐。
	// 输入被复制，调用方仍负责清零自己的缓冲区。
	Import(raw []byte) (*types.SecurePrivateKey, error)

	// DerivePublicKey 推导33字节压缩公钥
	DerivePublicKey(key *types.SecurePrivateKey) ([]byte, error)

	// DeriveUncompressedPublicKey 推导65字节未压缩公钥（0x04前缀）
	DeriveUncompressedPublicKey(key *types.SecurePrivateKey) ([]byte, error)

	// DeriveAddress 按配置的地址方案推导地址
	DeriveAddress(key *types.SecurePrivateKey) (types.Address, error)

	// DeriveAddressWithScheme 按指定方案推导地址
	DeriveAddressWithScheme(key *types.SecurePrivateKey, scheme types.AddressScheme) (types.Address, error)

	// ValidatePrivateKey 验证私钥字节（长度与标量范围）
	ValidatePrivateKey(raw []byte) error

	// ValidatePublicKey 验证公钥（33或65字节，且在曲线上）
	ValidatePublicKey(publicKey []byte) error

	// CompressPublicKey 将任意合法公钥转换为33字节压缩格式
	CompressPublicKey(publicKey []byte) ([]byte, error)

	// DecompressPublicKey 将任意合法公钥转换为65字节未压缩格式
	DecompressPublicKey(publicKey []byte) ([]byte, error)

	// ParsePublicKeyString 解析并校验十六进制公钥（允许0x前缀），按原编码返回
	ParsePublicKeyString(publicKeyHex string) ([]byte, error)

	// GenerateSeedPhrase 生成助记词，strength 为熵位数（128/160/192/224/256）
	GenerateSeedPhrase(strength int) (*types.SecureSeedPhrase, error)

	// ImportSeedPhrase 规范化并校验助记词
	ImportSeedPhrase(phrase []byte) (*types.SecureSeedPhrase, error)

	// DeriveFromSeedPhrase 按 BIP39 + BIP32 路径派生私钥
	//
	// path 为空时使用配置的默认路径（如 m/44'/60'/0'/0/0）。
	// 中间种子与扩展密钥在返回前清零。
	DeriveFromSeedPhrase(phrase *types.SecureSeedPhrase, passphrase []byte, path string) (*types.SecurePrivateKey, error)
}
