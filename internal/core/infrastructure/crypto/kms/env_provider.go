// Package kms 提供非交互的口令来源
//
// EnvPasswordProvider 从环境变量读取口令，用于 CI 与脚本场景。
// 接入外部 KMS 时实现 crypto.PasswordProvider 并替换即可。
package kms

import (
	"context"
	"fmt"
	"os"

	"github.com/weisyn/keycore/pkg/interfaces/infrastructure/crypto"
	"github.com/weisyn/keycore/pkg/interfaces/infrastructure/log"
)

// DefaultPasswordEnv 未指定变量名时读取的环境变量
const DefaultPasswordEnv = "KEYCORE_PASSWORD"

// EnvPasswordProvider 环境变量口令提供者
type EnvPasswordProvider struct {
	logger log.Logger
	lookup func(string) (string, bool)
}

// NewEnvPasswordProvider 创建环境变量口令提供者，logger 可为空
func NewEnvPasswordProvider(logger log.Logger) crypto.PasswordProvider {
	return &EnvPasswordProvider{logger: logger, lookup: os.LookupEnv}
}

// GetPassword 读取名为 name 的环境变量，name 为空时读取 KEYCORE_PASSWORD
//
// 变量未设置或为空时返回错误。返回值是新分配的切片，原字符串无法清零。
func (p *EnvPasswordProvider) GetPassword(ctx context.Context, name string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if name == "" {
		name = DefaultPasswordEnv
	}
	value, ok := p.lookup(name)
	if !ok || value == "" {
		return nil, fmt.Errorf("环境变量%s未设置", name)
	}

	if p.logger != nil {
		p.logger.Debugf("已从环境变量读取口令: name=%s", name)
	}
	return []byte(value), nil
}
