// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	AppName     *string `json:"app_name,omitempty"`    // 应用名称
	Environment *string `json:"environment,omitempty"` // 运行环境：dev | test | prod

	// 日志配置
	Log *UserLogConfig `json:"log,omitempty"`

	// 密钥核心配置 - 对应配置文件中的 crypto 字段
	Crypto *UserCryptoConfig `json:"crypto,omitempty"`
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台
}

// UserCryptoConfig 用户密钥核心配置
type UserCryptoConfig struct {
	// 口令哈希
	Argon2 *UserArgon2Config `json:"argon2,omitempty"`
	PBKDF2 *UserPBKDF2Config `json:"pbkdf2,omitempty"`

	// EntropyTimeout 随机源最长等待时间，Go duration 格式，如 "5s"
	EntropyTimeout *string `json:"entropy_timeout,omitempty"`

	// DefaultAEAD 口令加密与 CLI 默认使用的 AEAD：aes-256-gcm | chacha20-poly1305
	DefaultAEAD *string `json:"default_aead,omitempty"`

	// AddressScheme 地址方案：ethereum | bitcoin-p2pkh
	AddressScheme *string `json:"address_scheme,omitempty"`

	// DerivationPath 助记词默认派生路径
	DerivationPath *string `json:"derivation_path,omitempty"`

	// EnableMetrics 是否注册操作计数指标
	EnableMetrics *bool `json:"enable_metrics,omitempty"`
}

// UserArgon2Config Argon2id 参数
type UserArgon2Config struct {
	MemoryKiB  *uint32 `json:"memory_kib,omitempty"`
	Iterations *uint32 `json:"iterations,omitempty"`
	Threads    *uint8  `json:"threads,omitempty"`
	KeyLength  *uint32 `json:"key_length,omitempty"`
	SaltLength *uint32 `json:"salt_length,omitempty"`
}

// UserPBKDF2Config PBKDF2-HMAC-SHA256 参数
type UserPBKDF2Config struct {
	Iterations *uint32 `json:"iterations,omitempty"`
	KeyLength  *uint32 `json:"key_length,omitempty"`
	SaltLength *uint32 `json:"salt_length,omitempty"`
}

// StringPtr 返回字符串指针，便于构造用户配置
func StringPtr(s string) *string { return &s }

// BoolPtr 返回布尔指针
func BoolPtr(b bool) *bool { return &b }
