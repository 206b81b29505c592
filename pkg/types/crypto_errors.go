package types

import (
	"errors"
	"fmt"
)

// 错误分类哨兵值
//
// 所有组件返回的错误都可以用 errors.Is 归入以下类别之一。
// 除 ErrEntropyUnavailable 外均不可重试。
var (
	// ErrInvalidKeyFormat 密钥长度错误、标量越界或密钥已销毁
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrEntropyUnavailable 系统随机源失败或在限定时间内未返回
	ErrEntropyUnavailable = errors.New("entropy unavailable")

	// ErrAuthenticationFailed AEAD 标签或 ECIES MAC 校验失败
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrMalformedInput 输入结构错误：长度不符、编码无法解析
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnsupportedAlgorithm 未知的算法标识
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrAmbiguousRecovery 签名后无法唯一确定恢复标识
	ErrAmbiguousRecovery = errors.New("ambiguous signature recovery id")
)

// ErrKeyDestroyed 使用已销毁的安全容器
var ErrKeyDestroyed = fmt.Errorf("%w: secure material destroyed", ErrInvalidKeyFormat)

// 错误类别标签，用于日志与指标
const (
	KindOK                 = "ok"
	KindInvalidKeyFormat   = "invalid_key_format"
	KindEntropyUnavailable = "entropy_unavailable"
	KindAuthenticationFail = "authentication_failed"
	KindMalformedInput     = "malformed_input"
	KindUnsupportedAlgo    = "unsupported_algorithm"
	KindAmbiguousRecovery  = "ambiguous_recovery"
	KindUnknown            = "unknown"
)

// CryptoError 带操作名的分类错误
//
// Kind 是上面的哨兵之一，Err 是可选的底层原因。
// errors.Is 对 Kind 和 Err 都成立。
type CryptoError struct {
	Op   string
	Kind error
	Err  error
}

// NewCryptoError 创建分类错误
func NewCryptoError(op string, kind error, cause error) *CryptoError {
	return &CryptoError{Op: op, Kind: kind, Err: cause}
}

// Errorf 以格式化原因创建分类错误
func Errorf(op string, kind error, format string, args ...interface{}) *CryptoError {
	return &CryptoError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Error 实现 error 接口
func (e *CryptoError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap 同时暴露类别与原因
func (e *CryptoError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf 返回错误类别标签；nil 返回 KindOK
func KindOf(err error) string {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, ErrInvalidKeyFormat):
		return KindInvalidKeyFormat
	case errors.Is(err, ErrEntropyUnavailable):
		return KindEntropyUnavailable
	case errors.Is(err, ErrAuthenticationFailed):
		return KindAuthenticationFail
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return KindUnsupportedAlgo
	case errors.Is(err, ErrAmbiguousRecovery):
		return KindAmbiguousRecovery
	default:
		return KindUnknown
	}
}

// IsRetryable 只有熵源暂时不可用的错误值得调用方重试
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEntropyUnavailable)
}
