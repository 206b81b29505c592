// Package crypto 提供密钥核心服务的装配
package crypto

import (
	cryptoconfig "github.com/weisyn/keycore/internal/config/crypto"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/address"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/encryption"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/entropy"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/hash"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/key"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/password"
	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/signature"
	logimpl "github.com/weisyn/keycore/internal/core/infrastructure/log"
	"github.com/weisyn/keycore/internal/core/infrastructure/metrics"
	config "github.com/weisyn/keycore/pkg/interfaces/config"
	"github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	log "github.com/weisyn/keycore/pkg/interfaces/infrastructure/log"
	metricsintf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/keycore/pkg/utils/runtime"
)

// ServiceInput 定义加密服务工厂的输入参数
type ServiceInput struct {
	ConfigProvider config.Provider               // 为空时使用默认配置
	Logger         log.Logger                    // 为空时不输出日志
	Recorder       metricsintf.OperationRecorder // 为空或 NopRecorder 时不装饰
	Entropy        *entropy.Source               // 为空时使用系统随机源
}

// ServiceOutput 定义加密服务工厂的输出结果
type ServiceOutput struct {
	KeyManager        crypto.KeyManager
	AddressManager    crypto.AddressManager
	SignatureManager  crypto.SignatureManager
	HashManager       crypto.HashManager
	EncryptionManager crypto.EncryptionManager
	PasswordHasher    crypto.PasswordHasher
	Options           *cryptoconfig.CryptoOptions
}

// CreateCryptoServices 创建加密服务
//
// 服务之间的依赖：
//
//	HashService ──▶ AddressService ──▶ KeyManager
//	     │                └──────────▶ SignatureService
//	     └─────────────────────────────▶ SignatureService
//	PasswordService ──▶ EncryptionService
//
// 所有服务共享同一个带超时的熵源。Recorder 有效时各管理器外包一层指标装饰。
func CreateCryptoServices(input ServiceInput) (ServiceOutput, error) {
	var logger log.Logger
	if input.Logger != nil {
		logger = input.Logger.With("module", "crypto")
	} else {
		logger = logimpl.NewNop()
	}

	opts := cryptoconfig.Default()
	if input.ConfigProvider != nil && input.ConfigProvider.GetCrypto() != nil {
		opts = input.ConfigProvider.GetCrypto()
	}
	if err := opts.Validate(); err != nil {
		logger.Errorf("密钥核心配置无效: %v", err)
		return ServiceOutput{}, err
	}

	warnArgon2Memory(logger, opts.Password.Argon2.MemoryKiB, runtime.AvailableMemoryBytes())

	source := input.Entropy
	if source == nil {
		source = entropy.NewSystem(opts.EntropyTimeout)
	}

	hashService := hash.NewHashService()
	addressService := address.NewAddressService(hashService)
	keyManager := key.NewKeyManager(source, addressService,
		key.WithAddressScheme(opts.AddressScheme),
		key.WithDefaultPath(opts.DerivationPath),
	)
	sigService := signature.NewSignatureService(hashService, addressService)
	passwordService := password.NewPasswordService(source)
	encryptionService := encryption.NewEncryptionService(source, passwordService, opts.Password.Argon2)

	out := ServiceOutput{
		KeyManager:        keyManager,
		AddressManager:    addressService,
		SignatureManager:  sigService,
		HashManager:       hashService,
		EncryptionManager: encryptionService,
		PasswordHasher:    passwordService,
		Options:           opts,
	}

	observed := input.Recorder != nil
	if _, nop := input.Recorder.(metrics.NopRecorder); nop {
		observed = false
	}
	if observed {
		obs := observer{recorder: input.Recorder, logger: logger}
		out.KeyManager = observedKeyManager{KeyManager: keyManager, obs: obs}
		out.SignatureManager = observedSignatureManager{SignatureManager: sigService, obs: obs}
		out.EncryptionManager = observedEncryptionManager{EncryptionManager: encryptionService, obs: obs}
		out.PasswordHasher = observedPasswordHasher{PasswordHasher: passwordService, obs: obs}
	}

	logger.Infof("密钥核心已初始化: address_scheme=%s aead=%s entropy_timeout=%s metrics=%t",
		opts.AddressScheme, opts.DefaultAEAD, source.Timeout(), observed)
	return out, nil
}

// warnArgon2Memory Argon2 单次占用超过可用内存一半时告警
func warnArgon2Memory(logger log.Logger, memoryKiB uint32, available uint64) bool {
	if available == 0 {
		return false
	}
	need := uint64(memoryKiB) * 1024
	if need <= available/2 {
		return false
	}
	logger.Warnf("Argon2 内存参数偏大: memory_kib=%d available_bytes=%d", memoryKiB, available)
	return true
}
