package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cryptoconfig "github.com/weisyn/keycore/internal/config/crypto"
	"github.com/weisyn/keycore/internal/config/log"
	"github.com/weisyn/keycore/pkg/interfaces/config"
	"github.com/weisyn/keycore/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
	crypto    *cryptoconfig.CryptoOptions
}

// NewProvider 创建配置提供者
//
// 密钥核心配置在此处一次性解析和校验，非法配置直接返回错误。
func NewProvider(appConfig *types.AppConfig) (config.Provider, error) {
	var userCrypto *types.UserCryptoConfig
	if appConfig != nil {
		userCrypto = appConfig.Crypto
	}
	cryptoCfg, err := cryptoconfig.New(userCrypto)
	if err != nil {
		return nil, fmt.Errorf("加载密钥核心配置失败: %w", err)
	}
	return &Provider{appConfig: appConfig, crypto: cryptoCfg.GetOptions()}, nil
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	var userLogConfig *types.UserLogConfig
	if p.appConfig != nil {
		userLogConfig = p.appConfig.Log
	}
	return log.New(userLogConfig).GetOptions()
}

// GetCrypto 获取密钥核心配置
func (p *Provider) GetCrypto() *cryptoconfig.CryptoOptions {
	return p.crypto
}

// GetEnvironment 获取运行环境：dev | test | prod
//
// 未配置或取值非法时返回 prod。
func (p *Provider) GetEnvironment() string {
	if p.appConfig == nil || p.appConfig.Environment == nil {
		return "prod"
	}
	switch env := strings.ToLower(strings.TrimSpace(*p.appConfig.Environment)); env {
	case "dev", "test", "prod":
		return env
	default:
		return "prod"
	}
}

// GetAppConfig 获取原始用户配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}

// appOptions AppOptions 的简单实现
type appOptions struct {
	appConfig *types.AppConfig
}

func (o *appOptions) GetAppConfig() *types.AppConfig { return o.appConfig }

// NewAppOptions 包装已解析的用户配置
func NewAppOptions(appConfig *types.AppConfig) config.AppOptions {
	return &appOptions{appConfig: appConfig}
}

// LoadAppConfig 从 JSON 文件加载用户配置
//
// path 为空时返回空配置（全部使用默认值）。
func LoadAppConfig(path string) (*types.AppConfig, error) {
	if path == "" {
		return &types.AppConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseAppConfig(data)
}

// ParseAppConfig 解析 JSON 格式的用户配置
func ParseAppConfig(data []byte) (*types.AppConfig, error) {
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &appConfig, nil
}
