// Package encryption 提供对称认证加密、口令信封与 ECIES 公钥加密
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/password"
	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// envelopeVersion 口令信封格式版本
const envelopeVersion = 1

// passwordEnvelope 口令加密信封
//
//	{"version":1,"kdf":"$argon2id$v=19$m=..,t=..,p=..$salt","data":"<base64 EncryptedData>"}
type passwordEnvelope struct {
	Version int    `json:"version"`
	KDF     string `json:"kdf"`
	Data    string `json:"data"`
}

// EncryptionService 提供加密和解密功能
//
// 每次加密从熵源取新的12字节 nonce；头部（版本+算法）作为关联数据参与认证，
// 篡改算法标签会导致认证失败。
type EncryptionService struct {
	source    *entropy.Source
	kdf       *password.PasswordService
	kdfParams types.Argon2Params
}

// 确保EncryptionService实现了cryptointf.EncryptionManager接口
var _ cryptointf.EncryptionManager = (*EncryptionService)(nil)

// NewEncryptionService 创建新的加密服务
//
// kdfParams 为口令信封派生密钥使用的 Argon2id 参数，其中 KeyLength 被忽略（固定32字节）。
func NewEncryptionService(source *entropy.Source, kdf *password.PasswordService, kdfParams types.Argon2Params) *EncryptionService {
	if source == nil {
		source = entropy.NewSystem(entropy.DefaultTimeout)
	}
	if kdf == nil {
		kdf = password.NewPasswordService(source)
	}
	return &EncryptionService{source: source, kdf: kdf, kdfParams: kdfParams}
}

// newAEAD 按算法构造 AEAD
func newAEAD(op string, alg types.AEADAlgorithm, key []byte) (cipher.AEAD, error) {
	if len(key) != types.AEADKeyLength {
		return nil, types.Errorf(op, types.ErrInvalidKeyFormat, "key must be %d bytes, got %d", types.AEADKeyLength, len(key))
	}
	switch alg {
	case types.AEADAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
		}
		return aead, nil
	case types.AEADChaCha20Poly1305:
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
		}
		return aead, nil
	default:
		return nil, types.Errorf(op, types.ErrUnsupportedAlgorithm, "aead algorithm %d", uint8(alg))
	}
}

// Encrypt 使用32字节对称密钥加密
func (s *EncryptionService) Encrypt(algorithm types.AEADAlgorithm, key, plaintext []byte) (*types.EncryptedData, error) {
	const op = "encrypt"
	if !algorithm.Supported() {
		return nil, types.Errorf(op, types.ErrUnsupportedAlgorithm, "aead algorithm %d", uint8(algorithm))
	}
	aead, err := newAEAD(op, algorithm, key)
	if err != nil {
		return nil, err
	}

	nonce, err := s.source.Bytes(types.AEADNonceLength)
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrEntropyUnavailable, err)
	}

	out := &types.EncryptedData{Algorithm: algorithm, Nonce: nonce}
	sealed := aead.Seal(nil, nonce, plaintext, out.Header())
	split := len(sealed) - types.AEADTagLength
	out.Ciphertext = sealed[:split:split]
	out.Tag = sealed[split:]
	return out, nil
}

// Decrypt 解密并校验标签
//
// 认证失败时不返回任何部分明文。
func (s *EncryptionService) Decrypt(key []byte, data *types.EncryptedData) ([]byte, error) {
	const op = "decrypt"
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if !data.Algorithm.Supported() {
		return nil, types.Errorf(op, types.ErrUnsupportedAlgorithm, "aead algorithm %d", uint8(data.Algorithm))
	}
	aead, err := newAEAD(op, data.Algorithm, key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(data.Ciphertext)+len(data.Tag))
	sealed = append(sealed, data.Ciphertext...)
	sealed = append(sealed, data.Tag...)

	plaintext, err := aead.Open(nil, data.Nonce, sealed, data.Header())
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// EncryptWithPassword 用口令派生的密钥加密，输出 JSON 信封
func (s *EncryptionService) EncryptWithPassword(algorithm types.AEADAlgorithm, pw, plaintext []byte) ([]byte, error) {
	const op = "encrypt with password"
	if !algorithm.Supported() {
		return nil, types.Errorf(op, types.ErrUnsupportedAlgorithm, "aead algorithm %d", uint8(algorithm))
	}
	kek, descriptor, err := s.kdf.DeriveKey(pw, s.kdfParams, types.AEADKeyLength)
	if err != nil {
		return nil, err
	}
	defer memzero.Wipe(kek)

	data, err := s.Encrypt(algorithm, kek, plaintext)
	if err != nil {
		return nil, err
	}
	raw, err := data.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return json.Marshal(passwordEnvelope{
		Version: envelopeVersion,
		KDF:     descriptor,
		Data:    base64.StdEncoding.EncodeToString(raw),
	})
}

// DecryptWithPassword 解开 EncryptWithPassword 的输出
//
// 口令错误与信封被篡改都返回 ErrAuthenticationFailed。
func (s *EncryptionService) DecryptWithPassword(pw, sealed []byte) ([]byte, error) {
	const op = "decrypt with password"
	var env passwordEnvelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, types.NewCryptoError(op, types.ErrMalformedInput, err)
	}
	if env.Version != envelopeVersion {
		return nil, types.Errorf(op, types.ErrUnsupportedAlgorithm, "envelope version %d", env.Version)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrMalformedInput, err)
	}
	data, err := types.ParseEncryptedData(raw)
	if err != nil {
		return nil, err
	}

	kek, err := password.DeriveKeyFromDescriptor(pw, env.KDF, types.AEADKeyLength)
	if err != nil {
		return nil, err
	}
	defer memzero.Wipe(kek)
	return s.Decrypt(kek, data)
}
