// Package key 提供 secp256k1 私钥的生成、导入与公钥/地址推导
package key

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/secp256k1"
	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// maxGenerateAttempts 生成私钥时拒绝采样的最大次数
//
// 随机 32 字节落在 [n, 2^256) 或为零的概率约为 2^-128，
// 连续失败只可能来自损坏的熵源。
const maxGenerateAttempts = 16

// KeyManager 密钥管理器
//
// 🛡️ 私钥只以 *types.SecurePrivateKey 形式进出，
// 中间字节（熵、曲线标量、序列化结果）用完即清零。
type KeyManager struct {
	source      *entropy.Source
	addresses   cryptointf.AddressManager
	curve       *secp256k1.Curve
	scheme      types.AddressScheme
	defaultPath string
}

// 确保KeyManager实现了cryptointf.KeyManager接口
var _ cryptointf.KeyManager = (*KeyManager)(nil)

// Option 配置 KeyManager
type Option func(*KeyManager)

// WithAddressScheme 设置 DeriveAddress 使用的地址方案
func WithAddressScheme(scheme types.AddressScheme) Option {
	return func(km *KeyManager) { km.scheme = scheme }
}

// WithDefaultPath 设置 DeriveFromSeedPhrase 在 path 为空时使用的派生路径
func WithDefaultPath(path string) Option {
	return func(km *KeyManager) { km.defaultPath = path }
}

// NewKeyManager 创建新的密钥管理器
//
// source 为 nil 时使用系统熵源与默认超时。
func NewKeyManager(source *entropy.Source, addresses cryptointf.AddressManager, opts ...Option) *KeyManager {
	if source == nil {
		source = entropy.NewSystem(entropy.DefaultTimeout)
	}
	km := &KeyManager{
		source:      source,
		addresses:   addresses,
		curve:       secp256k1.NewCurve(),
		scheme:      types.AddressSchemeEthereum,
		defaultPath: DefaultDerivationPath,
	}
	for _, opt := range opts {
		opt(km)
	}
	return km
}

// Generate 生成新的随机私钥
//
// 熵源失败返回 ErrEntropyUnavailable；越界标量在内部重新采样，不会返回无效私钥。
func (km *KeyManager) Generate() (*types.SecurePrivateKey, error) {
	var scratch [types.PrivateKeyLength]byte
	defer memzero.Wipe32(&scratch)

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		if err := km.source.Fill(scratch[:]); err != nil {
			return nil, types.NewCryptoError("generate key", types.ErrEntropyUnavailable, err)
		}
		if types.ValidatePrivateKeyBytes(scratch[:]) != nil {
			continue
		}
		return types.NewSecurePrivateKey(scratch[:])
	}
	return nil, types.Errorf("generate key", types.ErrEntropyUnavailable,
		"no valid scalar after %d attempts", maxGenerateAttempts)
}

// Import 导入32字节私钥
//
// 长度必须精确为32，不截断不补齐；raw 仍归调用方所有。
func (km *KeyManager) Import(raw []byte) (*types.SecurePrivateKey, error) {
	return types.NewSecurePrivateKey(raw)
}

// DerivePublicKey 推导33字节压缩公钥
func (km *KeyManager) DerivePublicKey(key *types.SecurePrivateKey) ([]byte, error) {
	var pub []byte
	err := km.withPrivateKey(key, func(priv *btcec.PrivateKey) error {
		pub = priv.PubKey().SerializeCompressed()
		return nil
	})
	return pub, err
}

// DeriveUncompressedPublicKey 推导65字节未压缩公钥（0x04前缀）
func (km *KeyManager) DeriveUncompressedPublicKey(key *types.SecurePrivateKey) ([]byte, error) {
	var pub []byte
	err := km.withPrivateKey(key, func(priv *btcec.PrivateKey) error {
		pub = priv.PubKey().SerializeUncompressed()
		return nil
	})
	return pub, err
}

// DeriveAddress 按配置的地址方案推导地址
func (km *KeyManager) DeriveAddress(key *types.SecurePrivateKey) (types.Address, error) {
	return km.DeriveAddressWithScheme(key, km.scheme)
}

// DeriveAddressWithScheme 按指定方案推导地址
func (km *KeyManager) DeriveAddressWithScheme(key *types.SecurePrivateKey, scheme types.AddressScheme) (types.Address, error) {
	if km.addresses == nil {
		return types.Address{}, types.Errorf("derive address", types.ErrUnsupportedAlgorithm, "address manager not configured")
	}
	pub, err := km.DerivePublicKey(key)
	if err != nil {
		return types.Address{}, err
	}
	return km.addresses.PublicKeyToAddress(pub, scheme)
}

// ValidatePrivateKey 检查32字节且位于 [1, n-1]
func (km *KeyManager) ValidatePrivateKey(raw []byte) error {
	return types.ValidatePrivateKeyBytes(raw)
}

// ValidatePublicKey 检查33字节压缩或65字节未压缩公钥是否为曲线上的点
func (km *KeyManager) ValidatePublicKey(publicKey []byte) error {
	_, err := km.curve.ParsePublicKey(publicKey)
	return err
}

// CompressPublicKey 转换为33字节压缩格式
func (km *KeyManager) CompressPublicKey(publicKey []byte) ([]byte, error) {
	pub, err := km.curve.ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}

// DecompressPublicKey 转换为65字节未压缩格式
func (km *KeyManager) DecompressPublicKey(publicKey []byte) ([]byte, error) {
	pub, err := km.curve.ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// ParsePublicKeyString 解析十六进制公钥，允许 0x 前缀
//
// 支持的格式：
//   - 66个字符：33字节压缩公钥
//   - 130个字符：65字节未压缩公钥
func (km *KeyManager) ParsePublicKeyString(publicKeyHex string) ([]byte, error) {
	s := strings.TrimSpace(publicKeyHex)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, types.NewCryptoError("parse public key", types.ErrMalformedInput, err)
	}
	if err := km.ValidatePublicKey(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// withPrivateKey 在回调期间提供曲线私钥，回调结束后清零标量
func (km *KeyManager) withPrivateKey(key *types.SecurePrivateKey, fn func(priv *btcec.PrivateKey) error) error {
	if key == nil {
		return types.ErrKeyDestroyed
	}
	return key.Use(func(raw []byte) error {
		priv, err := km.curve.PrivateKey(raw)
		if err != nil {
			return err
		}
		defer priv.Zero()
		return fn(priv)
	})
}
