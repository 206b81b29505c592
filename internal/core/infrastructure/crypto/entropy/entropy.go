// Package entropy 提供限时的密码学随机源
//
// 所有密钥、随机数、盐都从 Source 取得。底层读取器阻塞或失败时，
// 调用方在超时后得到 ErrEntropyUnavailable，不会被无限挂起，
// 也不会退化到任何低质量的替代随机源。
package entropy

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/weisyn/keycore/pkg/types"
	"github.com/weisyn/keycore/pkg/utils/memzero"
)

// DefaultTimeout 默认等待时间
const DefaultTimeout = 5 * time.Second

// Source 限时随机源，可并发使用
type Source struct {
	reader  io.Reader
	timeout time.Duration
}

// New 基于任意读取器创建随机源（测试时注入）
func New(reader io.Reader, timeout time.Duration) *Source {
	if reader == nil {
		reader = rand.Reader
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Source{reader: reader, timeout: timeout}
}

// NewSystem 基于操作系统 CSPRNG 创建随机源
func NewSystem(timeout time.Duration) *Source {
	return New(rand.Reader, timeout)
}

// Timeout 返回等待上限
func (s *Source) Timeout() time.Duration { return s.timeout }

// Fill 用随机字节填满 p
//
// 读取在独立 goroutine 中进行，读入临时缓冲区；超时后该缓冲区由
// 先结束的一方清零，p 保持不变。
func (s *Source) Fill(p []byte) error {
	if len(p) == 0 {
		return nil
	}

	scratch := make([]byte, len(p))
	var (
		mu        sync.Mutex
		finished  bool
		abandoned bool
	)
	done := make(chan error, 1)

	go func() {
		_, err := io.ReadFull(s.reader, scratch)
		mu.Lock()
		finished = true
		late := abandoned
		mu.Unlock()
		if late {
			memzero.Wipe(scratch)
		}
		done <- err
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			memzero.Wipe(scratch)
			return types.NewCryptoError("read entropy", types.ErrEntropyUnavailable, err)
		}
		copy(p, scratch)
		memzero.Wipe(scratch)
		return nil

	case <-timer.C:
		mu.Lock()
		abandoned = true
		ready := finished
		mu.Unlock()
		if ready {
			memzero.Wipe(scratch)
		}
		return types.Errorf("read entropy", types.ErrEntropyUnavailable, "no data within %s", s.timeout)
	}
}

// Bytes 返回 n 个随机字节
func (s *Source) Bytes(n int) ([]byte, error) {
	out := make([]byte, n)
	if err := s.Fill(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Read 实现 io.Reader，供需要读取器的第三方库使用（同样受超时约束）
func (s *Source) Read(p []byte) (int, error) {
	if err := s.Fill(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
