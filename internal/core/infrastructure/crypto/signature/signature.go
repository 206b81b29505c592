// Package signature 提供 secp256k1 可恢复签名
//
// 签名格式固定为 r(32)‖s(32)‖v(1)，v 为原始恢复码 0 或 1，
// s 始终为低S形式。需要 27/28 的调用方使用 TransactionSignature.EthereumV()。
package signature

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/secp256k1"
	cryptointf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/types"
)

// 确保SignatureService实现了cryptointf.SignatureManager接口
var _ cryptointf.SignatureManager = (*SignatureService)(nil)

// SignatureService 签名服务
//
// 无状态，可并发使用；私钥只在 SecurePrivateKey.Use 回调内可见。
type SignatureService struct {
	hasher    cryptointf.HashManager
	addresses cryptointf.AddressManager
	curve     *secp256k1.Curve
}

// NewSignatureService 创建新的签名服务
func NewSignatureService(hasher cryptointf.HashManager, addresses cryptointf.AddressManager) *SignatureService {
	return &SignatureService{
		hasher:    hasher,
		addresses: addresses,
		curve:     secp256k1.NewCurve(),
	}
}

// Sign 对32字节摘要做 RFC6979 确定性签名
//
// 签名后用 v=0 与 v=1 分别恢复公钥：必须恰好一个恢复出签名者，
// 且与签名时得到的恢复码一致，否则返回 ErrAmbiguousRecovery。
func (ss *SignatureService) Sign(key *types.SecurePrivateKey, digest []byte) (types.TransactionSignature, error) {
	const op = "sign"
	if len(digest) != types.SignDigestLength {
		return types.TransactionSignature{}, types.Errorf(op, types.ErrMalformedInput,
			"digest must be %d bytes, got %d", types.SignDigestLength, len(digest))
	}
	if key == nil {
		return types.TransactionSignature{}, types.ErrKeyDestroyed
	}

	var sig types.TransactionSignature
	err := key.Use(func(raw []byte) error {
		priv, err := ss.curve.PrivateKey(raw)
		if err != nil {
			return err
		}
		defer priv.Zero()

		r, s, recID, err := ss.curve.SignRecoverable(priv, digest)
		if err != nil {
			return err
		}
		v, err := ss.resolveRecoveryID(priv.PubKey(), digest, r[:], s[:], recID)
		if err != nil {
			return err
		}
		sig, err = types.NewTransactionSignature(r[:], s[:], v)
		return err
	})
	if err != nil {
		return types.TransactionSignature{}, err
	}
	return sig, nil
}

// resolveRecoveryID 交叉校验恢复码
func (ss *SignatureService) resolveRecoveryID(signer *btcec.PublicKey, digest, r, s []byte, recID byte) (byte, error) {
	matches := 0
	var found byte
	for v := byte(0); v <= 1; v++ {
		pub, err := ss.curve.RecoverPublicKey(digest, r, s, v)
		if err == nil && pub.IsEqual(signer) {
			matches++
			found = v
		}
	}
	if matches != 1 || found != recID {
		return 0, types.Errorf("sign", types.ErrAmbiguousRecovery,
			"recovery id %d resolved to %d candidate(s)", recID, matches)
	}
	return found, nil
}

// Verify 验证65字节签名
//
// 公钥为33或65字节；签名格式错误、高S、标量越界、v 非 0/1，
// 或 v 恢复出的公钥与给定公钥不一致时返回 false。
func (ss *SignatureService) Verify(publicKey, digest, signature []byte) bool {
	if len(digest) != types.SignDigestLength {
		return false
	}
	pub, err := ss.curve.ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := types.ParseTransactionSignature(signature)
	if err != nil {
		return false
	}
	recovered, err := ss.curve.RecoverPublicKey(digest, sig.R(), sig.S(), sig.V())
	if err != nil || !recovered.IsEqual(pub) {
		return false
	}
	return ss.curve.Verify(pub, digest, sig.R(), sig.S())
}

// VerifyAddress 从签名恢复公钥，按地址的方案推导后比较
func (ss *SignatureService) VerifyAddress(address types.Address, digest, signature []byte) bool {
	if address.IsZero() {
		return false
	}
	pub, err := ss.RecoverPublicKey(digest, signature)
	if err != nil {
		return false
	}
	derived, err := ss.addresses.PublicKeyToAddress(pub, address.Scheme())
	if err != nil || !derived.Equal(address) {
		return false
	}
	return ss.Verify(pub, digest, signature)
}

// RecoverPublicKey 从签名恢复33字节压缩公钥
func (ss *SignatureService) RecoverPublicKey(digest, signature []byte) ([]byte, error) {
	if len(digest) != types.SignDigestLength {
		return nil, types.Errorf("recover public key", types.ErrMalformedInput,
			"digest must be %d bytes, got %d", types.SignDigestLength, len(digest))
	}
	sig, err := types.ParseTransactionSignature(signature)
	if err != nil {
		return nil, err
	}
	pub, err := ss.curve.RecoverPublicKey(digest, sig.R(), sig.S(), sig.V())
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}

// SignMessage 先按 algorithm 计算32字节摘要再签名
func (ss *SignatureService) SignMessage(key *types.SecurePrivateKey, algorithm types.HashAlgorithm, message []byte) (types.TransactionSignature, error) {
	digest, err := ss.hasher.MessageDigest(algorithm, message)
	if err != nil {
		return types.TransactionSignature{}, err
	}
	return ss.Sign(key, digest)
}

// VerifyMessage 验证 SignMessage 产生的签名
func (ss *SignatureService) VerifyMessage(publicKey []byte, algorithm types.HashAlgorithm, message, signature []byte) bool {
	digest, err := ss.hasher.MessageDigest(algorithm, message)
	if err != nil {
		return false
	}
	return ss.Verify(publicKey, digest, signature)
}
