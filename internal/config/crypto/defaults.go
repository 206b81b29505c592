package crypto

import "time"

// 密钥核心配置默认值
const (
	// === Argon2id（RFC 9106 第二推荐档） ===

	defaultArgon2MemoryKiB  = 64 * 1024
	defaultArgon2Iterations = 3
	defaultArgon2Threads    = 4
	defaultArgon2KeyLength  = 32
	defaultArgon2SaltLength = 16

	// === PBKDF2-HMAC-SHA256（仅兼容旧数据） ===

	// defaultPBKDF2Iterations OWASP 2023 对 SHA-256 的最低要求
	defaultPBKDF2Iterations = 600_000
	defaultPBKDF2KeyLength  = 32
	defaultPBKDF2SaltLength = 16

	// === 其它 ===

	// defaultEntropyTimeout 随机源最长等待时间
	defaultEntropyTimeout = 5 * time.Second

	defaultDerivationPath = "m/44'/60'/0'/0/0"
	defaultEnableMetrics  = false
)

// 参数下限，低于下限的配置直接拒绝
const (
	minArgon2MemoryKiB  = 8 * 1024
	minArgon2Iterations = 1
	minPBKDF2Iterations = 10_000
	minKeyLength        = 16
	minSaltLength       = 16
)
