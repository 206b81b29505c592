package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	"github.com/weisyn/keycore/pkg/interfaces/config"
	"github.com/weisyn/keycore/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
// 实现config.AppOptions接口
type options struct {
	// 用户配置
	appConfig *types.AppConfig

	// 指标注册器，为空时由指标模块决定
	registerer prometheus.Registerer

	// 随机源，测试时注入
	source *entropy.Source
}

// 编译时校验options是否实现了config.AppOptions接口
var _ config.AppOptions = (*options)(nil)

// WithAppConfig 使用已解析的用户配置
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		if appConfig != nil {
			o.appConfig = appConfig
		}
	}
}

// WithRegisterer 指定 prometheus 注册器
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithEntropy 替换系统随机源
func WithEntropy(source *entropy.Source) Option {
	return func(o *options) {
		o.source = source
	}
}

// newOptions 创建选项
func newOptions(opts ...Option) *options {
	options := &options{
		// 创建默认的空AppConfig
		appConfig: &types.AppConfig{},
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// GetAppConfig 返回应用程序配置
func (o *options) GetAppConfig() *types.AppConfig {
	return o.appConfig
}
