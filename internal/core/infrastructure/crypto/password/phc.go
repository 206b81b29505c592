package password

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/weisyn/keycore/pkg/types"
)

// PHC 标识
const (
	idArgon2id     = "argon2id"
	idPBKDF2SHA256 = "pbkdf2-sha256"
	idPBKDF2SHA512 = "pbkdf2-sha512"
)

// 解码参数上下界，拒绝构造出来耗尽资源的哈希串
const (
	maxArgon2MemoryKiB  = 2 * 1024 * 1024 // 2 GiB
	maxArgon2Iterations = 64
	maxPBKDF2Iterations = 10_000_000

	minOutputLength = 16
	maxOutputLength = 128
	minSaltLength   = 8
	maxSaltLength   = 128
)

var b64 = base64.RawStdEncoding

// parsedHash 解析后的 PHC 串，每种算法各自负责派生与参数比较
type parsedHash interface {
	// derive 用相同参数与盐重算，调用方负责清零
	derive(password []byte) []byte
	storedKey() []byte
	// weakerThan 算法与 algorithm 不同或参数弱于 config 时返回 true
	weakerThan(algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) bool
}

var (
	_ parsedHash = (*argon2Hash)(nil)
	_ parsedHash = (*pbkdf2Hash)(nil)
)

// argon2Hash 解析后的 $argon2id$ 串
type argon2Hash struct {
	params types.Argon2Params
	salt   []byte
	key    []byte
}

// pbkdf2Hash 解析后的 $pbkdf2-sha256$ / $pbkdf2-sha512$ 串
type pbkdf2Hash struct {
	sha512 bool
	params types.PBKDF2Params
	salt   []byte
	key    []byte
}

func (h *argon2Hash) derive(password []byte) []byte {
	p := h.params
	return argon2.IDKey(password, h.salt, p.Iterations, p.MemoryKiB, p.Threads, p.KeyLength)
}

func (h *argon2Hash) storedKey() []byte { return h.key }

func (h *argon2Hash) weakerThan(algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) bool {
	if algorithm != types.PasswordAlgorithmArgon2id {
		return true
	}
	want, got := config.Argon2, h.params
	return got.MemoryKiB < want.MemoryKiB ||
		got.Iterations < want.Iterations ||
		got.Threads < want.Threads ||
		got.KeyLength < want.KeyLength ||
		got.SaltLength < want.SaltLength
}

func (h *pbkdf2Hash) derive(password []byte) []byte {
	newHash := sha256.New
	if h.sha512 {
		newHash = sha512.New
	}
	return pbkdf2.Key(password, h.salt, int(h.params.Iterations), int(h.params.KeyLength), newHash)
}

func (h *pbkdf2Hash) storedKey() []byte { return h.key }

func (h *pbkdf2Hash) weakerThan(algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) bool {
	if algorithm != types.PasswordAlgorithmPBKDF2 || h.sha512 {
		return true
	}
	want, got := config.PBKDF2, h.params
	return got.Iterations < want.Iterations ||
		got.KeyLength < want.KeyLength ||
		got.SaltLength < want.SaltLength
}

func malformed(format string, args ...interface{}) error {
	return types.Errorf("parse password hash", types.ErrMalformedInput, format, args...)
}

// encodeArgon2Params m=..,t=..,p=..
func encodeArgon2Params(p types.Argon2Params) string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.MemoryKiB, p.Iterations, p.Threads)
}

// encodeArgon2 $argon2id$v=19$m=..,t=..,p=..$salt$hash
func encodeArgon2(p types.Argon2Params, salt, key []byte) string {
	return fmt.Sprintf("$%s$v=%d$%s$%s$%s", idArgon2id, argon2.Version, encodeArgon2Params(p),
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

// encodePBKDF2 $pbkdf2-sha256$i=..,l=..$salt$hash
func encodePBKDF2(p types.PBKDF2Params, salt, key []byte) string {
	return fmt.Sprintf("$%s$i=%d,l=%d$%s$%s", idPBKDF2SHA256, p.Iterations, p.KeyLength,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

// parseKV 解析 a=1,b=2 形式的参数段
func parseKV(segment string, keys ...string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(keys))
	fields := strings.Split(segment, ",")
	if len(fields) != len(keys) {
		return nil, malformed("expected %d parameters in %q", len(keys), segment)
	}
	for i, field := range fields {
		name, value, ok := strings.Cut(field, "=")
		if !ok || name != keys[i] {
			return nil, malformed("expected parameter %q in %q", keys[i], segment)
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, malformed("parameter %s: %v", name, err)
		}
		out[name] = n
	}
	return out, nil
}

func decodeB64(s, what string, minLen, maxLen int) ([]byte, error) {
	b, err := b64.DecodeString(s)
	if err != nil {
		return nil, malformed("%s: %v", what, err)
	}
	if len(b) < minLen || len(b) > maxLen {
		return nil, malformed("%s length %d out of [%d, %d]", what, len(b), minLen, maxLen)
	}
	return b, nil
}

// parseArgon2Params 解析并校验 m=..,t=..,p=.. 段
func parseArgon2Params(segment string) (types.Argon2Params, error) {
	kv, err := parseKV(segment, "m", "t", "p")
	if err != nil {
		return types.Argon2Params{}, err
	}
	p := types.Argon2Params{
		MemoryKiB:  uint32(kv["m"]),
		Iterations: uint32(kv["t"]),
	}
	if kv["p"] < 1 || kv["p"] > 255 {
		return types.Argon2Params{}, malformed("argon2 parallelism %d out of range", kv["p"])
	}
	p.Threads = uint8(kv["p"])
	if err := checkArgon2Bounds(p); err != nil {
		return types.Argon2Params{}, err
	}
	return p, nil
}

// checkArgon2Bounds 代价参数上下界
func checkArgon2Bounds(p types.Argon2Params) error {
	switch {
	case p.Threads == 0:
		return malformed("argon2 parallelism must be positive")
	case p.Iterations < 1 || p.Iterations > maxArgon2Iterations:
		return malformed("argon2 iterations %d out of [1, %d]", p.Iterations, maxArgon2Iterations)
	case p.MemoryKiB < 8*uint32(p.Threads) || p.MemoryKiB > maxArgon2MemoryKiB:
		return malformed("argon2 memory %d KiB out of [%d, %d]", p.MemoryKiB, 8*uint32(p.Threads), maxArgon2MemoryKiB)
	}
	return nil
}

// checkPBKDF2Bounds 代价参数上下界
func checkPBKDF2Bounds(iterations uint32) error {
	if iterations < 1 || iterations > maxPBKDF2Iterations {
		return malformed("pbkdf2 iterations %d out of [1, %d]", iterations, maxPBKDF2Iterations)
	}
	return nil
}

// checkVersion v=19
func checkVersion(segment string) error {
	if segment != fmt.Sprintf("v=%d", argon2.Version) {
		return types.Errorf("parse password hash", types.ErrUnsupportedAlgorithm, "argon2 version %q", segment)
	}
	return nil
}

// parseArgon2 $argon2id$v=19$m=..,t=..,p=..$salt$hash
func parseArgon2(parts []string) (*argon2Hash, error) {
	if len(parts) != 6 {
		return nil, malformed("argon2id hash has %d fields", len(parts))
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
	key, err := decodeB64(parts[5], "hash", minOutputLength, maxOutputLength)
	if err != nil {
		return nil, err
	}
	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))
	return &argon2Hash{params: params, salt: salt, key: key}, nil
}

// parsePBKDF2 $pbkdf2-sha256$i=..,l=..$salt$hash
func parsePBKDF2(parts []string) (*pbkdf2Hash, error) {
	if len(parts) != 5 {
		return nil, malformed("pbkdf2 hash has %d fields", len(parts))
	}
	kv, err := parseKV(parts[2], "i", "l")
	if err != nil {
		return nil, err
	}
	iterations := uint32(kv["i"])
	if err := checkPBKDF2Bounds(iterations); err != nil {
		return nil, err
	}
	salt, err := decodeB64(parts[3], "salt", minSaltLength, maxSaltLength)
	if err != nil {
		return nil, err
	}
	key, err := decodeB64(parts[4], "hash", minOutputLength, maxOutputLength)
	if err != nil {
		return nil, err
	}
	if uint64(len(key)) != kv["l"] {
		return nil, malformed("pbkdf2 declared length %d, decoded %d", kv["l"], len(key))
	}
	return &pbkdf2Hash{
		sha512: parts[1] == idPBKDF2SHA512,
		params: types.PBKDF2Params{
			Iterations: iterations,
			KeyLength:  uint32(len(key)),
			SaltLength: uint32(len(salt)),
		},
		salt: salt,
		key:  key,
	}, nil
}

// splitHash 拆分并识别算法
func splitHash(hash types.PasswordHash) (parsedHash, error) {
	s := string(hash)
	if !strings.HasPrefix(s, "$") {
		return nil, malformed("missing $ prefix")
	}
	parts := strings.Split(s, "$")
	switch parts[1] {
	case idArgon2id:
		return parseArgon2(parts)
	case idPBKDF2SHA256, idPBKDF2SHA512:
		return parsePBKDF2(parts)
	case "":
		return nil, malformed("empty algorithm identifier")
	default:
		return nil, types.Errorf("parse password hash", types.ErrUnsupportedAlgorithm, "identifier %q", parts[1])
	}
}
