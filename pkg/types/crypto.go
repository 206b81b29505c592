// Package types provides cryptographic type definitions.
package types

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
)

// ============================================================================
// 哈希
// ============================================================================

// HashAlgorithm 哈希算法标识
type HashAlgorithm uint8

const (
	HashAlgorithmUnknown HashAlgorithm = iota
	HashAlgorithmSHA256
	HashAlgorithmSHA512
	HashAlgorithmKeccak256
	HashAlgorithmKeccak512
)

// String 返回算法名称
func (a HashAlgorithm) String() string {
	switch a {
	case HashAlgorithmSHA256:
		return "sha256"
	case HashAlgorithmSHA512:
		return "sha512"
	case HashAlgorithmKeccak256:
		return "keccak256"
	case HashAlgorithmKeccak512:
		return "keccak512"
	default:
		return "unknown"
	}
}

// Size 返回摘要字节数，未知算法返回 0
func (a HashAlgorithm) Size() int {
	switch a {
	case HashAlgorithmSHA256, HashAlgorithmKeccak256:
		return 32
	case HashAlgorithmSHA512, HashAlgorithmKeccak512:
		return 64
	default:
		return 0
	}
}

// ParseHashAlgorithm 按名称解析哈希算法（不区分大小写，允许 sha-256 这类写法）
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "") {
	case "sha256":
		return HashAlgorithmSHA256, nil
	case "sha512":
		return HashAlgorithmSHA512, nil
	case "keccak256":
		return HashAlgorithmKeccak256, nil
	case "keccak512":
		return HashAlgorithmKeccak512, nil
	}
	return HashAlgorithmUnknown, Errorf("parse hash algorithm", ErrUnsupportedAlgorithm, "%q", name)
}

// Digest 哈希摘要（32 或 64 字节）
type Digest []byte

// Hex 返回小写十六进制
func (d Digest) Hex() string {
	return hex.EncodeToString(d)
}

// ============================================================================
// 签名
// ============================================================================

const (
	// SignatureScalarLength r、s 的字节长度
	SignatureScalarLength = 32
	// TransactionSignatureLength r‖s‖v 的总长度
	TransactionSignatureLength = 65
	// SignDigestLength 签名/验签要求的摘要长度
	SignDigestLength = 32
	// ethereumLegacyVOffset 以太坊传统签名中 v 的偏移
	ethereumLegacyVOffset = 27
)

// TransactionSignature secp256k1 可恢复签名 r‖s‖v
//
// 构造后不可变：字段不导出，访问器返回副本。
// 构造时保证 r、s ∈ [1, n-1]，s ≤ n/2（低 S），v ∈ {0, 1}。
type TransactionSignature struct {
	r [SignatureScalarLength]byte
	s [SignatureScalarLength]byte
	v byte
}

// NewTransactionSignature 由分量构造签名，并做完整的范围检查
func NewTransactionSignature(r, s []byte, v byte) (TransactionSignature, error) {
	const op = "new transaction signature"
	if len(r) != SignatureScalarLength || len(s) != SignatureScalarLength {
		return TransactionSignature{}, Errorf(op, ErrMalformedInput, "r/s must be %d bytes, got %d/%d",
			SignatureScalarLength, len(r), len(s))
	}
	if v > 1 {
		return TransactionSignature{}, Errorf(op, ErrMalformedInput, "recovery id %d out of range", v)
	}

	var rs, ss secp256k1.ModNScalar
	if overflow := rs.SetByteSlice(r); overflow || rs.IsZero() {
		return TransactionSignature{}, Errorf(op, ErrMalformedInput, "r out of range")
	}
	if overflow := ss.SetByteSlice(s); overflow || ss.IsZero() {
		return TransactionSignature{}, Errorf(op, ErrMalformedInput, "s out of range")
	}
	if ss.IsOverHalfOrder() {
		return TransactionSignature{}, Errorf(op, ErrMalformedInput, "s is not canonical (high-S)")
	}

	var sig TransactionSignature
	copy(sig.r[:], r)
	copy(sig.s[:], s)
	sig.v = v
	return sig, nil
}

// ParseTransactionSignature 解析 65 字节 r‖s‖v
func ParseTransactionSignature(b []byte) (TransactionSignature, error) {
	if len(b) != TransactionSignatureLength {
		return TransactionSignature{}, Errorf("parse transaction signature", ErrMalformedInput,
			"expected %d bytes, got %d", TransactionSignatureLength, len(b))
	}
	return NewTransactionSignature(b[:32], b[32:64], b[64])
}

// R 返回 r 的副本
func (sig TransactionSignature) R() []byte {
	out := sig.r
	return out[:]
}

// S 返回 s 的副本
func (sig TransactionSignature) S() []byte {
	out := sig.s
	return out[:]
}

// V 返回恢复标识（0 或 1）
func (sig TransactionSignature) V() byte { return sig.v }

// EthereumV 返回以太坊传统编码的 v（27/28）
func (sig TransactionSignature) EthereumV() byte { return sig.v + ethereumLegacyVOffset }

// Bytes 返回 65 字节线格式 r‖s‖v
func (sig TransactionSignature) Bytes() []byte {
	out := make([]byte, TransactionSignatureLength)
	copy(out[:32], sig.r[:])
	copy(out[32:64], sig.s[:])
	out[64] = sig.v
	return out
}

// Hex 返回线格式的十六进制
func (sig TransactionSignature) Hex() string {
	return hex.EncodeToString(sig.Bytes())
}

// IsZero 判断是否为零值（未经构造）
func (sig TransactionSignature) IsZero() bool {
	return sig == TransactionSignature{}
}

// ============================================================================
// 对称加密
// ============================================================================

// AEADAlgorithm 认证加密算法标识（写入密文头部）
type AEADAlgorithm uint8

const (
	AEADUnknown          AEADAlgorithm = 0
	AEADAES256GCM        AEADAlgorithm = 1
	AEADChaCha20Poly1305 AEADAlgorithm = 2
)

const (
	// AEADKeyLength 对称密钥长度
	AEADKeyLength = 32
	// AEADNonceLength 随机数长度（两种算法均为 96 位）
	AEADNonceLength = 12
	// AEADTagLength 认证标签长度
	AEADTagLength = 16
	// EncryptedDataVersion 二进制格式版本
	EncryptedDataVersion byte = 1

	encryptedDataHeaderLength = 2
	encryptedDataFixedLength  = encryptedDataHeaderLength + AEADNonceLength + 4 + AEADTagLength
)

// String 返回算法名称
func (a AEADAlgorithm) String() string {
	switch a {
	case AEADAES256GCM:
		return "aes-256-gcm"
	case AEADChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Supported 是否为已实现的算法
func (a AEADAlgorithm) Supported() bool {
	return a == AEADAES256GCM || a == AEADChaCha20Poly1305
}

// ParseAEADAlgorithm 按名称解析
func ParseAEADAlgorithm(name string) (AEADAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "aes-256-gcm", "aes256gcm", "aes-gcm":
		return AEADAES256GCM, nil
	case "chacha20-poly1305", "chacha20poly1305":
		return AEADChaCha20Poly1305, nil
	}
	return AEADUnknown, Errorf("parse aead algorithm", ErrUnsupportedAlgorithm, "%q", name)
}

// EncryptedData AEAD 密文
//
// 二进制格式：
//
//	version(1) ‖ alg(1) ‖ nonce(12) ‖ ctLen(uint32 BE) ‖ ciphertext ‖ tag(16)
//
// version‖alg 作为附加认证数据参与加密，算法标识无法被替换。
type EncryptedData struct {
	Algorithm  AEADAlgorithm
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// Header 返回参与认证的头部
func (d *EncryptedData) Header() []byte {
	return []byte{EncryptedDataVersion, byte(d.Algorithm)}
}

// Validate 检查结构；不检查算法是否支持
func (d *EncryptedData) Validate() error {
	const op = "validate encrypted data"
	if d == nil {
		return Errorf(op, ErrMalformedInput, "nil encrypted data")
	}
	if len(d.Nonce) != AEADNonceLength {
		return Errorf(op, ErrMalformedInput, "nonce must be %d bytes, got %d", AEADNonceLength, len(d.Nonce))
	}
	if len(d.Tag) != AEADTagLength {
		return Errorf(op, ErrMalformedInput, "tag must be %d bytes, got %d", AEADTagLength, len(d.Tag))
	}
	return nil
}

// MarshalBinary 编码为二进制格式
func (d *EncryptedData) MarshalBinary() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, encryptedDataFixedLength+len(d.Ciphertext))
	out = append(out, d.Header()...)
	out = append(out, d.Nonce...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(d.Ciphertext)))
	out = append(out, d.Ciphertext...)
	out = append(out, d.Tag...)
	return out, nil
}

// UnmarshalBinary 解析二进制格式，长度必须严格一致
func (d *EncryptedData) UnmarshalBinary(b []byte) error {
	const op = "parse encrypted data"
	if len(b) < encryptedDataFixedLength {
		return Errorf(op, ErrMalformedInput, "need at least %d bytes, got %d", encryptedDataFixedLength, len(b))
	}
	if b[0] != EncryptedDataVersion {
		return Errorf(op, ErrMalformedInput, "unknown format version %d", b[0])
	}
	alg := AEADAlgorithm(b[1])
	nonce := b[2 : 2+AEADNonceLength]
	ctLen := binary.BigEndian.Uint32(b[2+AEADNonceLength : encryptedDataHeaderLength+AEADNonceLength+4])
	if uint64(len(b)) != uint64(encryptedDataFixedLength)+uint64(ctLen) {
		return Errorf(op, ErrMalformedInput, "length mismatch: header says %d ciphertext bytes, have %d",
			ctLen, len(b)-encryptedDataFixedLength)
	}
	if !alg.Supported() {
		return Errorf(op, ErrUnsupportedAlgorithm, "%s", alg)
	}
	body := b[encryptedDataHeaderLength+AEADNonceLength+4:]

	d.Algorithm = alg
	d.Nonce = bytes.Clone(nonce)
	d.Ciphertext = bytes.Clone(body[:ctLen])
	d.Tag = bytes.Clone(body[ctLen:])
	return nil
}

// ParseEncryptedData 解析二进制格式
func ParseEncryptedData(b []byte) (*EncryptedData, error) {
	d := new(EncryptedData)
	if err := d.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return d, nil
}

// ============================================================================
// 口令哈希
// ============================================================================

// PasswordAlgorithm 口令哈希算法
//
// 零值不可用，调用方必须显式选择。
type PasswordAlgorithm uint8

const (
	PasswordAlgorithmUnknown  PasswordAlgorithm = 0
	PasswordAlgorithmArgon2id PasswordAlgorithm = 1
	PasswordAlgorithmPBKDF2   PasswordAlgorithm = 2
)

// PreferredPasswordAlgorithm 新建口令哈希的推荐算法
const PreferredPasswordAlgorithm = PasswordAlgorithmArgon2id

// String 返回 PHC 标识
func (a PasswordAlgorithm) String() string {
	switch a {
	case PasswordAlgorithmArgon2id:
		return "argon2id"
	case PasswordAlgorithmPBKDF2:
		return "pbkdf2-sha256"
	default:
		return "unknown"
	}
}

// ParsePasswordAlgorithm 按名称解析
func ParsePasswordAlgorithm(name string) (PasswordAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "argon2id", "argon2":
		return PasswordAlgorithmArgon2id, nil
	case "pbkdf2", "pbkdf2-sha256":
		return PasswordAlgorithmPBKDF2, nil
	}
	return PasswordAlgorithmUnknown, Errorf("parse password algorithm", ErrUnsupportedAlgorithm, "%q", name)
}

// PasswordHash 自描述的口令哈希串
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
//	$pbkdf2-sha256$i=600000,l=32$<salt>$<hash>
type PasswordHash string

// Identifier 返回 $ 之间的算法标识，无法识别时返回空串
func (h PasswordHash) Identifier() string {
	s := string(h)
	if !strings.HasPrefix(s, "$") {
		return ""
	}
	s = s[1:]
	if i := strings.IndexByte(s, '$'); i > 0 {
		return s[:i]
	}
	return ""
}

// ============================================================================
// 地址
// ============================================================================

// AddressScheme 地址编码方案
type AddressScheme uint8

const (
	AddressSchemeUnknown AddressScheme = iota
	// AddressSchemeEthereum Keccak256(X‖Y) 后 20 字节，EIP-55 校验大小写
	AddressSchemeEthereum
	// AddressSchemeBitcoinP2PKH RIPEMD160(SHA256(压缩公钥))，Base58Check 版本 0x00
	AddressSchemeBitcoinP2PKH
)

const (
	// AddressLength 地址负载长度
	AddressLength = 20
	// BitcoinP2PKHVersion 比特币主网 P2PKH 版本字节
	BitcoinP2PKHVersion byte = 0x00
)

// String 返回方案名
func (s AddressScheme) String() string {
	switch s {
	case AddressSchemeEthereum:
		return "ethereum"
	case AddressSchemeBitcoinP2PKH:
		return "bitcoin-p2pkh"
	default:
		return "unknown"
	}
}

// ParseAddressScheme 按名称解析
func ParseAddressScheme(name string) (AddressScheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ethereum", "eth", "evm":
		return AddressSchemeEthereum, nil
	case "bitcoin-p2pkh", "bitcoin", "btc", "p2pkh":
		return AddressSchemeBitcoinP2PKH, nil
	}
	return AddressSchemeUnknown, Errorf("parse address scheme", ErrUnsupportedAlgorithm, "%q", name)
}

// Address 链地址（方案 + 20 字节负载）
type Address struct {
	scheme  AddressScheme
	payload [AddressLength]byte
}

// NewAddress 由方案和负载构造地址
func NewAddress(scheme AddressScheme, payload []byte) (Address, error) {
	if scheme != AddressSchemeEthereum && scheme != AddressSchemeBitcoinP2PKH {
		return Address{}, Errorf("new address", ErrUnsupportedAlgorithm, "scheme %s", scheme)
	}
	if len(payload) != AddressLength {
		return Address{}, Errorf("new address", ErrMalformedInput, "payload must be %d bytes, got %d", AddressLength, len(payload))
	}
	a := Address{scheme: scheme}
	copy(a.payload[:], payload)
	return a, nil
}

// ParseAddress 解析地址字符串
//
// 0x 开头按以太坊地址解析（全大写/全小写接受，混合大小写必须符合 EIP-55），
// 其它按 Base58Check P2PKH 解析。
func ParseAddress(s string) (Address, error) {
	const op = "parse address"
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return Address{}, Errorf(op, ErrMalformedInput, "invalid hex address")
		}
		body := s[2:]
		mixed := strings.ToLower(body) != body && strings.ToUpper(body) != body
		addr := common.HexToAddress(s)
		if mixed && addr.Hex()[2:] != body {
			return Address{}, Errorf(op, ErrMalformedInput, "EIP-55 checksum mismatch")
		}
		return NewAddress(AddressSchemeEthereum, addr.Bytes())
	}

	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, NewCryptoError(op, ErrMalformedInput, err)
	}
	if version != BitcoinP2PKHVersion {
		return Address{}, Errorf(op, ErrUnsupportedAlgorithm, "base58 version 0x%02x", version)
	}
	return NewAddress(AddressSchemeBitcoinP2PKH, payload)
}

// Scheme 返回地址方案
func (a Address) Scheme() AddressScheme { return a.scheme }

// Bytes 返回 20 字节负载副本
func (a Address) Bytes() []byte {
	out := a.payload
	return out[:]
}

// IsZero 是否未构造
func (a Address) IsZero() bool { return a.scheme == AddressSchemeUnknown }

// Equal 方案和负载都一致
func (a Address) Equal(other Address) bool { return a == other }

// String 按方案渲染
func (a Address) String() string {
	switch a.scheme {
	case AddressSchemeEthereum:
		return common.BytesToAddress(a.payload[:]).Hex()
	case AddressSchemeBitcoinP2PKH:
		return base58.CheckEncode(a.payload[:], BitcoinP2PKHVersion)
	default:
		return ""
	}
}

// MarshalText 地址以字符串形式序列化
func (a Address) MarshalText() ([]byte, error) {
	if a.IsZero() {
		return nil, Errorf("marshal address", ErrMalformedInput, "empty address")
	}
	return []byte(a.String()), nil
}

// UnmarshalText 从字符串解析
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Argon2Params Argon2id 代价参数
type Argon2Params struct {
	MemoryKiB  uint32 `json:"memory_kib"`
	Iterations uint32 `json:"iterations"`
	Threads    uint8  `json:"threads"`
	KeyLength  uint32 `json:"key_length"`
	SaltLength uint32 `json:"salt_length"`
}

// PBKDF2Params PBKDF2-HMAC-SHA256 代价参数
type PBKDF2Params struct {
	Iterations uint32 `json:"iterations"`
	KeyLength  uint32 `json:"key_length"`
	SaltLength uint32 `json:"salt_length"`
}

// PasswordHashConfig 口令哈希参数集合，按所选算法取用其中一组
type PasswordHashConfig struct {
	Argon2 Argon2Params `json:"argon2"`
	PBKDF2 PBKDF2Params `json:"pbkdf2"`
}
