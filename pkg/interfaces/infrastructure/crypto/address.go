package crypto

import "github.com/weisyn/keycore/pkg/types"

// AddressManager 定义公钥到地址的转换接口
//
// 支持的方案：
// - 以太坊：Keccak256(X‖Y) 后20字节，EIP-55 大小写校验
// - 比特币 P2PKH：RIPEMD160(SHA256(压缩公钥))，Base58Check 版本 0x00
type AddressManager interface {
	// PublicKeyToAddress 由33或65字节公钥推导地址
	PublicKeyToAddress(publicKey []byte, scheme types.AddressScheme) (types.Address, error)

	// ParseAddress 解析地址字符串
	ParseAddress(address string) (types.Address, error)

	// ValidateAddress 地址字符串是否合法
	ValidateAddress(address string) bool
}
