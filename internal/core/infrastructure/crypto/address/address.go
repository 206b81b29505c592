// Package address 提供公钥到链地址的推导
package address

import (
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/secp256k1"
	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
)

// AddressService 地址管理服务
//
// 支持两种方案：
//   - 以太坊：Keccak256(X‖Y) 取后20字节，EIP-55 大小写校验
//   - 比特币 P2PKH：RIPEMD160(SHA256(压缩公钥))，Base58Check 版本 0x00
//
// 无状态，可并发使用。
type AddressService struct {
	hasher cryptointf.HashManager
	curve  *secp256k1.Curve
}

// 确保AddressService实现了AddressManager接口
var _ cryptointf.AddressManager = (*AddressService)(nil)

// NewAddressService 创建新的地址服务实例
func NewAddressService(hasher cryptointf.HashManager) *AddressService {
	return &AddressService{
		hasher: hasher,
		curve:  secp256k1.NewCurve(),
	}
}

// PublicKeyToAddress 从33字节压缩或65字节未压缩公钥推导地址
//
// 同一把密钥的两种公钥编码推导出相同地址。
func (s *AddressService) PublicKeyToAddress(publicKey []byte, scheme types.AddressScheme) (types.Address, error) {
	pub, err := s.curve.ParsePublicKey(publicKey)
	if err != nil {
		return types.Address{}, err
	}

	switch scheme {
	case types.AddressSchemeEthereum:
		// 去掉 0x04 前缀
		digest := s.hasher.Keccak256(pub.SerializeUncompressed()[1:])
		return types.NewAddress(scheme, digest[len(digest)-types.AddressLength:])
	case types.AddressSchemeBitcoinP2PKH:
		return types.NewAddress(scheme, s.hasher.Hash160(pub.SerializeCompressed()))
	default:
		return types.Address{}, types.Errorf("public key to address", types.ErrUnsupportedAlgorithm, "scheme %s", scheme)
	}
}

// ParseAddress 解析地址字符串
func (s *AddressService) ParseAddress(address string) (types.Address, error) {
	return types.ParseAddress(address)
}

// ValidateAddress 地址格式与校验和是否正确
func (s *AddressService) ValidateAddress(address string) bool {
	_, err := types.ParseAddress(address)
	return err == nil
}
