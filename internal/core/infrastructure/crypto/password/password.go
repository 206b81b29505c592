// Package password 提供口令哈希与口令派生密钥
//
// 新哈希默认使用 Argon2id；PBKDF2 仅在调用方显式要求时生成，
// 用于与旧数据兼容。所有输出都是自描述的 PHC 字符串。
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// 确保PasswordService实现了cryptointf.PasswordHasher接口
var _ cryptointf.PasswordHasher = (*PasswordService)(nil)

// PasswordService 口令哈希服务
//
// 算法与参数每次调用显式传入，不持有全局策略。
type PasswordService struct {
	source *entropy.Source
}

// NewPasswordService 创建口令哈希服务，source 为 nil 时使用系统熵源
func NewPasswordService(source *entropy.Source) *PasswordService {
	if source == nil {
		source = entropy.NewSystem(entropy.DefaultTimeout)
	}
	return &PasswordService{source: source}
}

// Hash 计算口令哈希
//
// 每次调用使用新盐，同一口令两次哈希结果不同。
func (s *PasswordService) Hash(password []byte, algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) (types.PasswordHash, error) {
	const op = "hash password"
	switch algorithm {
	case types.PasswordAlgorithmArgon2id:
		p := config.Argon2
		if err := checkArgon2Config(p); err != nil {
			return "", err
		}
		salt, err := s.salt(op, p.SaltLength)
		if err != nil {
			return "", err
		}
		key := argon2.IDKey(password, salt, p.Iterations, p.MemoryKiB, p.Threads, p.KeyLength)
		defer memzero.Wipe(key)
		return types.PasswordHash(encodeArgon2(p, salt, key)), nil

	case types.PasswordAlgorithmPBKDF2:
		p := config.PBKDF2
		if err := checkPBKDF2Config(p); err != nil {
			return "", err
		}
		salt, err := s.salt(op, p.SaltLength)
		if err != nil {
			return "", err
		}
		key := pbkdf2.Key(password, salt, int(p.Iterations), int(p.KeyLength), sha256.New)
		defer memzero.Wipe(key)
		return types.PasswordHash(encodePBKDF2(p, salt, key)), nil

	default:
		return "", types.Errorf(op, types.ErrUnsupportedAlgorithm, "password algorithm %d", uint8(algorithm))
	}
}

// Verify 校验口令
//
// 不匹配返回 (false, nil)；哈希串无法解析返回 ErrMalformedInput；
// 未知算法标识返回 ErrUnsupportedAlgorithm。
func (s *PasswordService) Verify(password []byte, hash types.PasswordHash) (bool, error) {
	parsed, err := splitHash(hash)
	if err != nil {
		return false, err
	}

	computed := parsed.derive(password)
	defer memzero.Wipe(computed)
	return subtle.ConstantTimeCompare(computed, parsed.storedKey()) == 1, nil
}

// NeedsRehash 判断已有哈希是否应在下次登录时按当前策略重算
//
// 算法不同、或参数弱于 config 时返回 true。
func (s *PasswordService) NeedsRehash(hash types.PasswordHash, algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) (bool, error) {
	if algorithm != types.PasswordAlgorithmArgon2id && algorithm != types.PasswordAlgorithmPBKDF2 {
		return false, types.Errorf("needs rehash", types.ErrUnsupportedAlgorithm, "password algorithm %d", uint8(algorithm))
	}
	parsed, err := splitHash(hash)
	if err != nil {
		return false, err
	}

	return parsed.weakerThan(algorithm, config), nil
}

// DeriveKey 用 Argon2id 从口令派生 keyLen 字节密钥
//
// 返回不含哈希值的 KDF 描述串 $argon2id$v=19$m=..,t=..,p=..$salt，
// 供 DeriveKeyFromDescriptor 重新派生。调用方负责清零返回的密钥。
func (s *PasswordService) DeriveKey(password []byte, params types.Argon2Params, keyLen uint32) ([]byte, string, error) {
	if err := checkArgon2Config(params); err != nil {
		return nil, "", err
	}
	salt, err := s.salt("derive key", params.SaltLength)
	if err != nil {
		return nil, "", err
	}
	key := argon2.IDKey(password, salt, params.Iterations, params.MemoryKiB, params.Threads, keyLen)
	descriptor := fmt.Sprintf("$%s$v=%d$%s$%s", idArgon2id, argon2.Version, encodeArgon2Params(params), b64.EncodeToString(salt))
	return key, descriptor, nil
}

// DeriveKeyFromDescriptor 按 KDF 描述串重新派生密钥
func DeriveKeyFromDescriptor(password []byte, descriptor string, keyLen uint32) ([]byte, error) {
	if !strings.HasPrefix(descriptor, "$") {
		return nil, malformed("missing $ prefix")
	}
	parts := strings.Split(descriptor, "$")
	if len(parts) != 5 {
		return nil, malformed("kdf descriptor has %d fields", len(parts))
	}
	if parts[1] != idArgon2id {
		return nil, types.Errorf("parse kdf descriptor", types.ErrUnsupportedAlgorithm, "identifier %q", parts[1])
	}
	if err := checkVersion(parts[2]); err != nil {
		return nil, err
	}
	params, err := parseArgon2Params(parts[3])
	if err != nil {
		return nil, err
	}
	salt, err := decodeB64(parts[4], "salt", minSaltLength, maxSaltLength)
	if err != nil {
		return nil, err
	}
	return argon2.IDKey(password, salt, params.Iterations, params.MemoryKiB, params.Threads, keyLen), nil
}

func (s *PasswordService) salt(op string, n uint32) ([]byte, error) {
	salt, err := s.source.Bytes(int(n))
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrEntropyUnavailable, err)
	}
	return salt, nil
}

// checkArgon2Config 生成侧参数检查，与解码侧边界一致，保证生成的哈希总能被校验
func checkArgon2Config(p types.Argon2Params) error {
	if err := checkArgon2Bounds(p); err != nil {
		return err
	}
	if p.KeyLength < minOutputLength || p.KeyLength > maxOutputLength {
		return malformed("argon2 key length %d out of [%d, %d]", p.KeyLength, minOutputLength, maxOutputLength)
	}
	if p.SaltLength < minSaltLength || p.SaltLength > maxSaltLength {
		return malformed("argon2 salt length %d out of [%d, %d]", p.SaltLength, minSaltLength, maxSaltLength)
	}
	return nil
}

func checkPBKDF2Config(p types.PBKDF2Params) error {
	if err := checkPBKDF2Bounds(p.Iterations); err != nil {
		return err
	}
	if p.KeyLength < minOutputLength || p.KeyLength > maxOutputLength {
		return malformed("pbkdf2 key length %d out of [%d, %d]", p.KeyLength, minOutputLength, maxOutputLength)
	}
	if p.SaltLength < minSaltLength || p.SaltLength > maxSaltLength {
		return malformed("pbkdf2 salt length %d out of [%d, %d]", p.SaltLength, minSaltLength, maxSaltLength)
	}
	return nil
}
