package types

import (
	"fmt"
	"runtime"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap/zapcore"

	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// PrivateKeyLength secp256k1 私钥字节数
const PrivateKeyLength = 32

// redacted 所有安全容器对外呈现的占位文本
const redacted = "[REDACTED]"

// secretBuffer 安全容器的底层缓冲区
//
// 单独分配，供 runtime.AddCleanup 在容器被回收时清零。
type secretBuffer struct {
	b         []byte
	destroyed bool
}

func (s *secretBuffer) wipe() {
	memzero.Wipe(s.b)
	s.b = nil
	s.destroyed = true
}

// use 将副本交给回调，任何退出路径（返回、错误、panic）都会清零副本
func (s *secretBuffer) use(fn func([]byte) error) error {
	if s.destroyed {
		return ErrKeyDestroyed
	}
	scratch := make([]byte, len(s.b))
	copy(scratch, s.b)
	defer memzero.Wipe(scratch)
	return fn(scratch)
}

func (s *secretBuffer) export() ([]byte, error) {
	if s.destroyed {
		return nil, ErrKeyDestroyed
	}
	out := make([]byte, len(s.b))
	copy(out, s.b)
	return out, nil
}

// ============================================================================
// SecurePrivateKey
// ============================================================================

// SecurePrivateKey 私钥的独占持有容器
//
// 🛡️ 约束：
//   - 构造时复制输入，不与调用方共享底层数组
//   - 原始字节只能通过 Use（回调期间的临时副本）或 Export（调用方接管的副本）取得
//   - Destroy 清零缓冲区，可重复调用；销毁后的任何使用都返回 ErrKeyDestroyed
//   - 调用方忘记 Destroy 时，GC 回收容器会触发清零，这只是兜底
//   - 格式化、JSON、文本序列化、zap 日志都只输出句柄 ID
//
// 单一所有者，不做内部同步。
type SecurePrivateKey struct {
	id      uuid.UUID
	buf     *secretBuffer
	cleanup runtime.Cleanup
}

// ValidatePrivateKeyBytes 检查 32 字节且标量位于 [1, n-1]
func ValidatePrivateKeyBytes(raw []byte) error {
	const op = "validate private key"
	if len(raw) != PrivateKeyLength {
		return Errorf(op, ErrInvalidKeyFormat, "expected %d bytes, got %d", PrivateKeyLength, len(raw))
	}
	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(raw)
	zero := scalar.IsZero()
	scalar.Zero()
	if overflow {
		return Errorf(op, ErrInvalidKeyFormat, "scalar >= curve order")
	}
	if zero {
		return Errorf(op, ErrInvalidKeyFormat, "scalar is zero")
	}
	return nil
}

// NewSecurePrivateKey 校验并复制 raw 构造私钥容器
//
// raw 仍由调用方持有，调用方负责清零。
func NewSecurePrivateKey(raw []byte) (*SecurePrivateKey, error) {
	if err := ValidatePrivateKeyBytes(raw); err != nil {
		return nil, err
	}
	buf := &secretBuffer{b: make([]byte, PrivateKeyLength)}
	copy(buf.b, raw)

	k := &SecurePrivateKey{id: uuid.New(), buf: buf}
	k.cleanup = runtime.AddCleanup(k, func(b *secretBuffer) { b.wipe() }, buf)
	return k, nil
}

// ID 返回非机密的句柄标识，用于日志与指标关联
func (k *SecurePrivateKey) ID() string {
	if k == nil {
		return ""
	}
	return k.id.String()
}

// Use 在回调期间提供私钥副本，回调返回后副本被清零
//
// 回调不得保留切片引用。
func (k *SecurePrivateKey) Use(fn func(raw []byte) error) error {
	if k == nil || k.buf == nil {
		return ErrKeyDestroyed
	}
	defer runtime.KeepAlive(k)
	return k.buf.use(fn)
}

// Export 返回私钥副本，调用方负责清零
func (k *SecurePrivateKey) Export() ([]byte, error) {
	if k == nil || k.buf == nil {
		return nil, ErrKeyDestroyed
	}
	defer runtime.KeepAlive(k)
	return k.buf.export()
}

// Destroy 清零并作废容器，可重复调用
func (k *SecurePrivateKey) Destroy() {
	if k == nil || k.buf == nil || k.buf.destroyed {
		return
	}
	k.buf.wipe()
	k.cleanup.Stop()
}

// IsDestroyed 是否已销毁
func (k *SecurePrivateKey) IsDestroyed() bool {
	return k == nil || k.buf == nil || k.buf.destroyed
}

// String 永远不输出密钥内容
func (k *SecurePrivateKey) String() string {
	return fmt.Sprintf("SecurePrivateKey(%s, %s)", k.ID(), redacted)
}

// GoString 对应 %#v
func (k *SecurePrivateKey) GoString() string { return k.String() }

// Format 覆盖所有格式化动词（%x、%v、%+v 等）
func (k *SecurePrivateKey) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(k.String()))
}

// MarshalJSON 禁止序列化
func (k *SecurePrivateKey) MarshalJSON() ([]byte, error) {
	return nil, Errorf("marshal private key", ErrInvalidKeyFormat, "secure material is not serializable")
}

// MarshalText 禁止序列化
func (k *SecurePrivateKey) MarshalText() ([]byte, error) {
	return nil, Errorf("marshal private key", ErrInvalidKeyFormat, "secure material is not serializable")
}

// MarshalLogObject zap 日志中只记录句柄
func (k *SecurePrivateKey) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("key_id", k.ID())
	enc.AddBool("destroyed", k.IsDestroyed())
	return nil
}

// ============================================================================
// SecureSeedPhrase
// ============================================================================

// 助记词允许的词数（BIP39 128~256 位熵）
var validSeedWordCounts = map[int]struct{}{12: {}, 15: {}, 18: {}, 21: {}, 24: {}}

// SecureSeedPhrase 助记词的独占持有容器
//
// 与 SecurePrivateKey 相同的持有与清零约束。内部保存规范化后的
// 助记词字节（单空格分隔、小写），构造时按 BIP39 英文词表和校验和验证。
type SecureSeedPhrase struct {
	id        uuid.UUID
	buf       *secretBuffer
	wordCount int
	cleanup   runtime.Cleanup
}

// NewSecureSeedPhrase 规范化、校验并复制助记词
//
// phrase 仍由调用方持有，调用方负责清零。
func NewSecureSeedPhrase(phrase []byte) (*SecureSeedPhrase, error) {
	const op = "new seed phrase"

	normalized, words := normalizeMnemonic(phrase)
	if _, ok := validSeedWordCounts[words]; !ok {
		memzero.Wipe(normalized)
		return nil, Errorf(op, ErrMalformedInput, "word count %d not in {12,15,18,21,24}", words)
	}
	// go-bip39 只接受 string，这里会产生一份无法清零的临时副本
	if !bip39.IsMnemonicValid(string(normalized)) {
		memzero.Wipe(normalized)
		return nil, Errorf(op, ErrInvalidKeyFormat, "unknown word or checksum mismatch")
	}

	buf := &secretBuffer{b: normalized}
	sp := &SecureSeedPhrase{id: uuid.New(), buf: buf, wordCount: words}
	sp.cleanup = runtime.AddCleanup(sp, func(b *secretBuffer) { b.wipe() }, buf)
	return sp, nil
}

// normalizeMnemonic 折叠空白并转小写，返回新分配的缓冲区与词数
func normalizeMnemonic(phrase []byte) ([]byte, int) {
	out := make([]byte, 0, len(phrase))
	words := 0
	inWord := false
	for _, c := range phrase {
		switch c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			inWord = false
			continue
		}
		if !inWord {
			if words > 0 {
				out = append(out, ' ')
			}
			words++
			inWord = true
		}
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return out, words
}

// ID 返回非机密的句柄标识
func (sp *SecureSeedPhrase) ID() string {
	if sp == nil {
		return ""
	}
	return sp.id.String()
}

// WordCount 助记词词数
func (sp *SecureSeedPhrase) WordCount() int {
	if sp == nil {
		return 0
	}
	return sp.wordCount
}

// Use 在回调期间提供规范化助记词的副本
func (sp *SecureSeedPhrase) Use(fn func(phrase []byte) error) error {
	if sp == nil || sp.buf == nil {
		return ErrKeyDestroyed
	}
	defer runtime.KeepAlive(sp)
	return sp.buf.use(fn)
}

// Export 返回助记词副本，调用方负责清零
func (sp *SecureSeedPhrase) Export() ([]byte, error) {
	if sp == nil || sp.buf == nil {
		return nil, ErrKeyDestroyed
	}
	defer runtime.KeepAlive(sp)
	return sp.buf.export()
}

// Destroy 清零并作废容器，可重复调用
func (sp *SecureSeedPhrase) Destroy() {
	if sp == nil || sp.buf == nil || sp.buf.destroyed {
		return
	}
	sp.buf.wipe()
	sp.cleanup.Stop()
}

// IsDestroyed 是否已销毁
func (sp *SecureSeedPhrase) IsDestroyed() bool {
	return sp == nil || sp.buf == nil || sp.buf.destroyed
}

func (sp *SecureSeedPhrase) String() string {
	return fmt.Sprintf("SecureSeedPhrase(%s, %d words, %s)", sp.ID(), sp.WordCount(), redacted)
}

func (sp *SecureSeedPhrase) GoString() string { return sp.String() }

func (sp *SecureSeedPhrase) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(sp.String()))
}

func (sp *SecureSeedPhrase) MarshalJSON() ([]byte, error) {
	return nil, Errorf("marshal seed phrase", ErrInvalidKeyFormat, "secure material is not serializable")
}

func (sp *SecureSeedPhrase) MarshalText() ([]byte, error) {
	return nil, Errorf("marshal seed phrase", ErrInvalidKeyFormat, "secure material is not serializable")
}

func (sp *SecureSeedPhrase) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("seed_id", sp.ID())
	enc.AddInt("words", sp.WordCount())
	enc.AddBool("destroyed", sp.IsDestroyed())
	return nil
}
