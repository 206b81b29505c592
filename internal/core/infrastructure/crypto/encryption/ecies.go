package encryption

import (
	"crypto/ecdsa"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"

	"github.com/weisyn/keycore/internal/core/infrastructure/crypto/secp256k1"
	"github.com/weisyn/keycore/pkg/types"
)

// eciesMinLength 临时公钥(65) + IV(16) + HMAC-SHA256(32)
const eciesMinLength = 65 + 16 + 32

// SealToPublicKey 使用 ECIES 加密给持有对应私钥的一方
//
// 公钥可以是33字节压缩或65字节未压缩格式。
func (s *EncryptionService) SealToPublicKey(publicKey, plaintext []byte) ([]byte, error) {
	const op = "seal to public key"
	if len(plaintext) == 0 {
		return nil, types.Errorf(op, types.ErrMalformedInput, "empty plaintext")
	}
	pub, err := secp256k1.NewCurve().ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	// ecies 需要 go-ethereum 的曲线实现，否则报 unsupported ECIES parameters
	ecdsaPub, err := ethcrypto.UnmarshalPubkey(pub.SerializeUncompressed())
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
	}

	sealed, err := ecies.Encrypt(s.source, ecies.ImportECDSAPublic(ecdsaPub), plaintext, nil, nil)
	if err != nil {
		if errors.Is(err, types.ErrEntropyUnavailable) {
			return nil, types.NewCryptoError(op, types.ErrEntropyUnavailable, err)
		}
		return nil, types.NewCryptoError(op, types.ErrUnsupportedAlgorithm, err)
	}
	return sealed, nil
}

// OpenWithPrivateKey 解开 SealToPublicKey 的输出
func (s *EncryptionService) OpenWithPrivateKey(key *types.SecurePrivateKey, sealed []byte) ([]byte, error) {
	const op = "open with private key"
	if len(sealed) < eciesMinLength || sealed[0] != 0x04 {
		return nil, types.Errorf(op, types.ErrMalformedInput, "ciphertext too short or bad ephemeral key prefix")
	}
	if key == nil {
		return nil, types.ErrKeyDestroyed
	}

	var plaintext []byte
	err := key.Use(func(raw []byte) error {
		priv, err := ethcrypto.ToECDSA(raw)
		if err != nil {
			return types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
		}
		defer zeroECDSA(priv)

		plaintext, err = ecies.ImportECDSA(priv).Decrypt(sealed, nil, nil)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ecies.ErrInvalidPublicKey):
			return types.NewCryptoError(op, types.ErrMalformedInput, err)
		default:
			// MAC 不匹配同样报 ErrInvalidMessage，长度已在上面检查
			return types.NewCryptoError(op, types.ErrAuthenticationFailed, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// zeroECDSA 清零 big.Int 私钥的底层字
func zeroECDSA(priv *ecdsa.PrivateKey) {
	if priv == nil || priv.D == nil {
		return
	}
	words := priv.D.Bits()
	for i := range words {
		words[i] = 0
	}
	priv.D.SetInt64(0)
}
