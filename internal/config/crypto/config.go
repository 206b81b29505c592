// Package crypto 提供密钥核心配置
package crypto

import (
	"fmt"
	"time"

	"github.com/weisyn/keycore/pkg/types"
)

// CryptoOptions 密钥核心配置选项
type CryptoOptions struct {
	// 口令哈希参数
	Password types.PasswordHashConfig `json:"password"`

	// 随机源最长等待时间
	EntropyTimeout time.Duration `json:"entropy_timeout"`

	// 默认 AEAD 算法
	DefaultAEAD types.AEADAlgorithm `json:"default_aead"`

	// 地址方案
	AddressScheme types.AddressScheme `json:"address_scheme"`

	// 助记词默认派生路径
	DerivationPath string `json:"derivation_path"`

	// 是否注册 prometheus 指标
	EnableMetrics bool `json:"enable_metrics"`
}

// Config 密钥核心配置实现
type Config struct {
	options *CryptoOptions
}

// New 创建密钥核心配置
//
// 用户配置中无法解析的取值返回错误，不静默回退。
func New(userConfig *types.UserCryptoConfig) (*Config, error) {
	options := createDefaultCryptoOptions()
	if userConfig != nil {
		if err := applyUserCryptoConfig(options, userConfig); err != nil {
			return nil, err
		}
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return &Config{options: options}, nil
}

// Default 返回默认配置
func Default() *CryptoOptions {
	return createDefaultCryptoOptions()
}

func createDefaultCryptoOptions() *CryptoOptions {
	return &CryptoOptions{
		Password: types.PasswordHashConfig{
			Argon2: types.Argon2Params{
				MemoryKiB:  defaultArgon2MemoryKiB,
				Iterations: defaultArgon2Iterations,
				Threads:    defaultArgon2Threads,
				KeyLength:  defaultArgon2KeyLength,
				SaltLength: defaultArgon2SaltLength,
			},
			PBKDF2: types.PBKDF2Params{
				Iterations: defaultPBKDF2Iterations,
				KeyLength:  defaultPBKDF2KeyLength,
				SaltLength: defaultPBKDF2SaltLength,
			},
		},
		EntropyTimeout: defaultEntropyTimeout,
		DefaultAEAD:    types.AEADAES256GCM,
		AddressScheme:  types.AddressSchemeEthereum,
		DerivationPath: defaultDerivationPath,
		EnableMetrics:  defaultEnableMetrics,
	}
}

// applyUserCryptoConfig 应用用户配置覆盖默认值
func applyUserCryptoConfig(options *CryptoOptions, user *types.UserCryptoConfig) error {
	if a := user.Argon2; a != nil {
		p := &options.Password.Argon2
		if a.MemoryKiB != nil {
			p.MemoryKiB = *a.MemoryKiB
		}
		if a.Iterations != nil {
			p.Iterations = *a.Iterations
		}
		if a.Threads != nil {
			p.Threads = *a.Threads
		}
		if a.KeyLength != nil {
			p.KeyLength = *a.KeyLength
		}
		if a.SaltLength != nil {
			p.SaltLength = *a.SaltLength
		}
	}

	if k := user.PBKDF2; k != nil {
		p := &options.Password.PBKDF2
		if k.Iterations != nil {
			p.Iterations = *k.Iterations
		}
		if k.KeyLength != nil {
			p.KeyLength = *k.KeyLength
		}
		if k.SaltLength != nil {
			p.SaltLength = *k.SaltLength
		}
	}

	if user.EntropyTimeout != nil {
		d, err := time.ParseDuration(*user.EntropyTimeout)
		if err != nil {
			return fmt.Errorf("crypto.entropy_timeout: %w", err)
		}
		options.EntropyTimeout = d
	}
	if user.DefaultAEAD != nil {
		alg, err := types.ParseAEADAlgorithm(*user.DefaultAEAD)
		if err != nil {
			return fmt.Errorf("crypto.default_aead: %w", err)
		}
		options.DefaultAEAD = alg
	}
	if user.AddressScheme != nil {
		scheme, err := types.ParseAddressScheme(*user.AddressScheme)
		if err != nil {
			return fmt.Errorf("crypto.address_scheme: %w", err)
		}
		options.AddressScheme = scheme
	}
	if user.DerivationPath != nil {
		options.DerivationPath = *user.DerivationPath
	}
	if user.EnableMetrics != nil {
		options.EnableMetrics = *user.EnableMetrics
	}
	return nil
}

// Validate 检查参数下限
func (o *CryptoOptions) Validate() error {
	a := o.Password.Argon2
	switch {
	case a.MemoryKiB < minArgon2MemoryKiB:
		return fmt.Errorf("crypto.argon2.memory_kib must be >= %d", minArgon2MemoryKiB)
	case a.Iterations < minArgon2Iterations:
		return fmt.Errorf("crypto.argon2.iterations must be >= %d", minArgon2Iterations)
	case a.Threads == 0:
		return fmt.Errorf("crypto.argon2.threads must be > 0")
	case a.KeyLength < minKeyLength:
		return fmt.Errorf("crypto.argon2.key_length must be >= %d", minKeyLength)
	case a.SaltLength < minSaltLength:
		return fmt.Errorf("crypto.argon2.salt_length must be >= %d", minSaltLength)
	}

	k := o.Password.PBKDF2
	switch {
	case k.Iterations < minPBKDF2Iterations:
		return fmt.Errorf("crypto.pbkdf2.iterations must be >= %d", minPBKDF2Iterations)
	case k.KeyLength < minKeyLength:
		return fmt.Errorf("crypto.pbkdf2.key_length must be >= %d", minKeyLength)
	case k.SaltLength < minSaltLength:
		return fmt.Errorf("crypto.pbkdf2.salt_length must be >= %d", minSaltLength)
	}

	if o.EntropyTimeout <= 0 {
		return fmt.Errorf("crypto.entropy_timeout must be positive")
	}
	if !o.DefaultAEAD.Supported() {
		return fmt.Errorf("crypto.default_aead: unsupported %s", o.DefaultAEAD)
	}
	if o.AddressScheme != types.AddressSchemeEthereum && o.AddressScheme != types.AddressSchemeBitcoinP2PKH {
		return fmt.Errorf("crypto.address_scheme: unsupported %s", o.AddressScheme)
	}
	return nil
}

// GetOptions 获取完整配置
func (c *Config) GetOptions() *CryptoOptions {
	return c.options
}
