// Package config provides configuration provider interfaces.
package config

import (
	cryptoconfig "github.com/weisyn/keycore/internal/config/crypto"
	logconfig "github.com/weisyn/keycore/internal/config/log"
	"github.com/weisyn/keycore/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetCrypto 获取密钥核心配置
	GetCrypto() *cryptoconfig.CryptoOptions

	// GetEnvironment 获取运行环境（dev | test | prod），缺省为 prod
	GetEnvironment() string

	// GetAppConfig 获取原始用户配置（可能为 nil）
	GetAppConfig() *types.AppConfig
}
