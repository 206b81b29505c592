package crypto

import (
	"go.uber.org/fx"

	config "github.com/weisyn/keycore/pkg/interfaces/config"
	"github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	log "github.com/weisyn/keycore/pkg/interfaces/infrastructure/log"
	metricsintf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/metrics"
)

// CryptoParams 定义加密模块的依赖参数
type CryptoParams struct {
	fx.In

	Provider config.Provider               // 配置提供者
	Logger   log.Logger                    `optional:"true"` // 日志记录器
	Recorder metricsintf.OperationRecorder `optional:"true"` // 指标记录器
}

// CryptoOutput 定义加密模块的输出结构
type CryptoOutput struct {
	fx.Out

	KeyManager        crypto.KeyManager
	AddressManager    crypto.AddressManager
	SignatureManager  crypto.SignatureManager
	HashManager       crypto.HashManager
	EncryptionManager crypto.EncryptionManager
	PasswordHasher    crypto.PasswordHasher
}

// Module 返回加密模块
func Module() fx.Option {
	return fx.Module("crypto",
		fx.Provide(ProvideCryptoServices),
	)
}

// ProvideCryptoServices 提供加密服务
func ProvideCryptoServices(params CryptoParams) (CryptoOutput, error) {
	serviceOutput, err := CreateCryptoServices(ServiceInput{
		ConfigProvider: params.Provider,
		Logger:         params.Logger,
		Recorder:       params.Recorder,
	})
	if err != nil {
		return CryptoOutput{}, err
	}

	return CryptoOutput{
		KeyManager:        serviceOutput.KeyManager,
		AddressManager:    serviceOutput.AddressManager,
		SignatureManager:  serviceOutput.SignatureManager,
		HashManager:       serviceOutput.HashManager,
		EncryptionManager: serviceOutput.EncryptionManager,
		PasswordHasher:    serviceOutput.PasswordHasher,
	}, nil
}
