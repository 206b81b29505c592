// Package app 装配密钥核心应用
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	configimpl "github.com/weisyn/keycore/internal/config"
	cryptoconfig "github.com/weisyn/keycore/internal/config/crypto"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto"
	logimpl "github.com/weisyn/keycore/internal/core/infrastructure/log"
	"github.com/weisyn/keycore/internal/core/infrastructure/metrics"
	"github.com/weisyn/keycore/pkg/interfaces/config"
	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	log "github.com/weisyn/keycore/pkg/interfaces/infrastructure/log"
	metricsintf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/metrics"
)

// startTimeout 启动与停止的最长等待
const startTimeout = 15 * time.Second

// Services 应用对外暴露的服务集合
type Services struct {
	fx.In

	Keys       cryptointf.KeyManager
	Addresses  cryptointf.AddressManager
	Signatures cryptointf.SignatureManager
	Hashes     cryptointf.HashManager
	Encryption cryptointf.EncryptionManager
	Passwords  cryptointf.PasswordHasher
	Options    *cryptoconfig.CryptoOptions
	Logger     log.Logger
}

// App 已启动的应用
type App struct {
	fxApp    *fx.App
	services Services
}

// Services 返回服务集合
func (a *App) Services() Services {
	return a.services
}

// Stop 停止应用，刷新日志
func (a *App) Stop(ctx context.Context) error {
	if err := a.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// modules 返回按层排列的 fx 模块
//
//	配置 → 日志 → 指标 → 密钥核心
func modules(opts *options) []fx.Option {
	mods := []fx.Option{
		fx.Provide(func() config.AppOptions { return opts }),
		configimpl.Module(),
		logimpl.Module(),
		metrics.Module(),
	}
	if opts.registerer != nil {
		mods = append(mods, fx.Provide(func() prometheus.Registerer { return opts.registerer }))
	}

	if opts.source != nil {
		// 注入随机源时绕过 crypto.Module，直接调用工厂
		mods = append(mods, fx.Provide(func(p config.Provider, l log.Logger, r metricsintf.OperationRecorder) (crypto.CryptoOutput, error) {
			out, err := crypto.CreateCryptoServices(crypto.ServiceInput{
				ConfigProvider: p,
				Logger:         l,
				Recorder:       r,
				Entropy:        opts.source,
			})
			if err != nil {
				return crypto.CryptoOutput{}, err
			}
			return crypto.CryptoOutput{
				KeyManager:        out.KeyManager,
				AddressManager:    out.AddressManager,
				SignatureManager:  out.SignatureManager,
				HashManager:       out.HashManager,
				EncryptionManager: out.EncryptionManager,
				PasswordHasher:    out.PasswordHasher,
			}, nil
		}))
	} else {
		mods = append(mods, crypto.Module())
	}
	return mods
}

// Start 装配并启动应用
func Start(ctx context.Context, opts ...Option) (*App, error) {
	o := newOptions(opts...)

	app := &App{}
	app.fxApp = fx.New(
		fx.Options(modules(o)...),
		// 禁用fx内部日志
		fx.NopLogger,
		fx.Invoke(func(s Services) { app.services = s }),
	)
	if err := app.fxApp.Err(); err != nil {
		return nil, fmt.Errorf("创建应用失败: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := app.fxApp.Start(startCtx); err != nil {
		return nil, fmt.Errorf("启动应用失败: %w", err)
	}
	return app, nil
}

// StopWithTimeout 以默认超时停止
func (a *App) StopWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	return a.Stop(ctx)
}
