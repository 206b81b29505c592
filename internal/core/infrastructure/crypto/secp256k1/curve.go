// Package secp256k1 提供 secp256k1 椭圆曲线封装
//
// 封装 btcd/btcec 的 secp256k1 实现，对外提供统一的曲线接口。
// 签名统一使用 r(32)‖s(32)‖v(1) 格式，v 只允许 0 或 1；
// 不再兼容“恢复码前置”的紧凑格式，两种格式无法可靠区分。
package secp256k1

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/weisyn/keycore/pkg/types"
)

const (
	// compactMagicOffset 紧凑签名恢复码偏移
	compactMagicOffset = 27
	// compactCompressedFlag 紧凑签名中表示压缩公钥的标志
	compactCompressedFlag = 4
	// compactSigLength 恢复码(1)+r(32)+s(32)
	compactSigLength = 65
)

// Curve 封装 secp256k1 椭圆曲线
type Curve struct{}

// NewCurve 创建新的 secp256k1 曲线实例
func NewCurve() *Curve {
	return &Curve{}
}

// PrivateKey 由32字节标量构造私钥，调用方用完后必须调用 Zero()
func (c *Curve) PrivateKey(raw []byte) (*btcec.PrivateKey, error) {
	if err := types.ValidatePrivateKeyBytes(raw); err != nil {
		return nil, err
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return priv, nil
}

// ParsePublicKey 解析33字节压缩或65字节未压缩公钥
//
// 拒绝 0x06/0x07 混合格式。
func (c *Curve) ParsePublicKey(pub []byte) (*btcec.PublicKey, error) {
	const op = "parse public key"
	switch {
	case len(pub) == btcec.PubKeyBytesLenCompressed && (pub[0] == 0x02 || pub[0] == 0x03):
	case len(pub) == secp.PubKeyBytesLenUncompressed && pub[0] == 0x04:
	default:
		return nil, types.Errorf(op, types.ErrInvalidKeyFormat, "unsupported public key encoding (len=%d)", len(pub))
	}
	key, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrInvalidKeyFormat, err)
	}
	return key, nil
}

// SignRecoverable 对32字节哈希做 RFC6979 确定性签名
//
// 返回低S的 r、s 与恢复码（0~3，高位表示 r 溢出，实际极少出现）。
func (c *Curve) SignRecoverable(priv *btcec.PrivateKey, hash []byte) (r, s [32]byte, recID byte, err error) {
	if len(hash) != types.SignDigestLength {
		err = types.Errorf("sign", types.ErrMalformedInput, "digest must be %d bytes, got %d", types.SignDigestLength, len(hash))
		return
	}
	compact := ecdsa.SignCompact(priv, hash, true)
	if len(compact) != compactSigLength {
		err = types.Errorf("sign", types.ErrMalformedInput, "unexpected compact signature length %d", len(compact))
		return
	}
	recID = compact[0] - compactMagicOffset - compactCompressedFlag
	copy(r[:], compact[1:33])
	copy(s[:], compact[33:65])
	return
}

// RecoverPublicKey 按恢复码从 r、s 恢复公钥
func (c *Curve) RecoverPublicKey(hash, r, s []byte, recID byte) (*btcec.PublicKey, error) {
	const op = "recover public key"
	if len(hash) != types.SignDigestLength {
		return nil, types.Errorf(op, types.ErrMalformedInput, "digest must be %d bytes", types.SignDigestLength)
	}
	if len(r) != 32 || len(s) != 32 {
		return nil, types.Errorf(op, types.ErrMalformedInput, "r/s must be 32 bytes")
	}
	if recID > 3 {
		return nil, types.Errorf(op, types.ErrMalformedInput, "recovery id %d out of range", recID)
	}

	compact := make([]byte, compactSigLength)
	compact[0] = compactMagicOffset + compactCompressedFlag + recID
	copy(compact[1:33], r)
	copy(compact[33:], s)

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, types.NewCryptoError(op, types.ErrMalformedInput, err)
	}
	return pub, nil
}

// Verify 验证 r、s 签名
//
// r、s 必须在 [1, n-1]，且 s ≤ n/2；高S签名视为无效。
func (c *Curve) Verify(pub *btcec.PublicKey, hash, r, s []byte) bool {
	if pub == nil || len(hash) != types.SignDigestLength || len(r) != 32 || len(s) != 32 {
		return false
	}
	var rs, ss btcec.ModNScalar
	if overflow := rs.SetByteSlice(r); overflow || rs.IsZero() {
		return false
	}
	if overflow := ss.SetByteSlice(s); overflow || ss.IsZero() || ss.IsOverHalfOrder() {
		return false
	}
	return ecdsa.NewSignature(&rs, &ss).Verify(hash, pub)
}
