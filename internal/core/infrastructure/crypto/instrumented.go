package crypto

import (
	"time"

	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	log "github.com/weisyn/keycore/pkg/interfaces/infrastructure/log"
	metricsintf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/keycore/pkg/types"
)

// observer 记录操作结果，只输出操作名与错误分类
type observer struct {
	recorder metricsintf.OperationRecorder
	logger   log.Logger
}

func (o observer) done(op string, start time.Time, err error) {
	kind := types.KindOf(err)
	o.recorder.Observe(op, kind, time.Since(start))
	if err != nil {
		o.logger.Debugf("%s 失败: kind=%s retryable=%t", op, kind, types.IsRetryable(err))
	}
}

func (o observer) verdict(op string, start time.Time, ok bool) {
	result := metricsintf.ResultOK
	if !ok {
		result = metricsintf.ResultRejected
	}
	o.recorder.Observe(op, result, time.Since(start))
}

// observedKeyManager 为密钥生成、导入与派生计数
type observedKeyManager struct {
	cryptointf.KeyManager
	obs observer
}

func (m observedKeyManager) Generate() (*types.SecurePrivateKey, error) {
	start := time.Now()
	k, err := m.KeyManager.Generate()
	m.obs.done("key_generate", start, err)
	return k, err
}

func (m observedKeyManager) Import(raw []byte) (*types.SecurePrivateKey, error) {
	start := time.Now()
	k, err := m.KeyManager.Import(raw)
	m.obs.done("key_import", start, err)
	return k, err
}

func (m observedKeyManager) DeriveAddress(key *types.SecurePrivateKey) (types.Address, error) {
	start := time.Now()
	addr, err := m.KeyManager.DeriveAddress(key)
	m.obs.done("key_derive_address", start, err)
	return addr, err
}

func (m observedKeyManager) GenerateSeedPhrase(strength int) (*types.SecureSeedPhrase, error) {
	start := time.Now()
	sp, err := m.KeyManager.GenerateSeedPhrase(strength)
	m.obs.done("seed_generate", start, err)
	return sp, err
}

func (m observedKeyManager) ImportSeedPhrase(phrase []byte) (*types.SecureSeedPhrase, error) {
	start := time.Now()
	sp, err := m.KeyManager.ImportSeedPhrase(phrase)
	m.obs.done("seed_import", start, err)
	return sp, err
}

func (m observedKeyManager) DeriveFromSeedPhrase(phrase *types.SecureSeedPhrase, passphrase []byte, path string) (*types.SecurePrivateKey, error) {
	start := time.Now()
	k, err := m.KeyManager.DeriveFromSeedPhrase(phrase, passphrase, path)
	m.obs.done("seed_derive", start, err)
	return k, err
}

// observedSignatureManager 为签名与验证计数
type observedSignatureManager struct {
	cryptointf.SignatureManager
	obs observer
}

func (m observedSignatureManager) Sign(key *types.SecurePrivateKey, digest []byte) (types.TransactionSignature, error) {
	start := time.Now()
	sig, err := m.SignatureManager.Sign(key, digest)
	m.obs.done("sign", start, err)
	return sig, err
}

func (m observedSignatureManager) Verify(publicKey, digest, signature []byte) bool {
	start := time.Now()
	ok := m.SignatureManager.Verify(publicKey, digest, signature)
	m.obs.verdict("verify", start, ok)
	return ok
}

func (m observedSignatureManager) VerifyAddress(address types.Address, digest, signature []byte) bool {
	start := time.Now()
	ok := m.SignatureManager.VerifyAddress(address, digest, signature)
	m.obs.verdict("verify_address", start, ok)
	return ok
}

// observedEncryptionManager 为加解密计数
type observedEncryptionManager struct {
	cryptointf.EncryptionManager
	obs observer
}

func (m observedEncryptionManager) Encrypt(alg types.AEADAlgorithm, key, plaintext []byte) (*types.EncryptedData, error) {
	start := time.Now()
	out, err := m.EncryptionManager.Encrypt(alg, key, plaintext)
	m.obs.done("encrypt", start, err)
	return out, err
}

func (m observedEncryptionManager) Decrypt(key []byte, data *types.EncryptedData) ([]byte, error) {
	start := time.Now()
	out, err := m.EncryptionManager.Decrypt(key, data)
	m.obs.done("decrypt", start, err)
	return out, err
}

func (m observedEncryptionManager) EncryptWithPassword(alg types.AEADAlgorithm, password, plaintext []byte) ([]byte, error) {
	start := time.Now()
	out, err := m.EncryptionManager.EncryptWithPassword(alg, password, plaintext)
	m.obs.done("encrypt_password", start, err)
	return out, err
}

func (m observedEncryptionManager) DecryptWithPassword(password, sealed []byte) ([]byte, error) {
	start := time.Now()
	out, err := m.EncryptionManager.DecryptWithPassword(password, sealed)
	m.obs.done("decrypt_password", start, err)
	return out, err
}

func (m observedEncryptionManager) SealToPublicKey(publicKey, plaintext []byte) ([]byte, error) {
	start := time.Now()
	out, err := m.EncryptionManager.SealToPublicKey(publicKey, plaintext)
	m.obs.done("ecies_seal", start, err)
	return out, err
}

func (m observedEncryptionManager) OpenWithPrivateKey(key *types.SecurePrivateKey, sealed []byte) ([]byte, error) {
	start := time.Now()
	out, err := m.EncryptionManager.OpenWithPrivateKey(key, sealed)
	m.obs.done("ecies_open", start, err)
	return out, err
}

// observedPasswordHasher 为口令哈希计数
type observedPasswordHasher struct {
	cryptointf.PasswordHasher
	obs observer
}

func (m observedPasswordHasher) Hash(password []byte, alg types.PasswordAlgorithm, cfg types.PasswordHashConfig) (types.PasswordHash, error) {
	start := time.Now()
	h, err := m.PasswordHasher.Hash(password, alg, cfg)
	m.obs.done("password_hash", start, err)
	return h, err
}

func (m observedPasswordHasher) Verify(password []byte, hash types.PasswordHash) (bool, error) {
	start := time.Now()
	ok, err := m.PasswordHasher.Verify(password, hash)
	if err != nil {
		m.obs.done("password_verify", start, err)
	} else {
		m.obs.verdict("password_verify", start, ok)
	}
	return ok, err
}
