package crypto

import (
	"context"

	"github.com/weisyn/keycore/pkg/types"
)

// PasswordHasher 定义口令哈希接口
//
// 算法与参数总是由调用方显式传入，不存在全局策略。
// 输出为自描述字符串，验证时按其中的算法标识分派。
type PasswordHasher interface {
	// Hash 使用新盐计算口令哈希
	Hash(password []byte, algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) (types.PasswordHash, error)

	// Verify 常量时间比较；不匹配返回 (false, nil)
	Verify(password []byte, hash types.PasswordHash) (bool, error)

	// NeedsRehash 已有哈希是否弱于目标算法与参数（用于迁移）
	NeedsRehash(hash types.PasswordHash, algorithm types.PasswordAlgorithm, config types.PasswordHashConfig) (bool, error)
}

// PasswordProvider 非交互场景下的口令来源（环境变量、外部 KMS 等）
//
// 返回的切片归调用方所有，调用方负责清零。
type PasswordProvider interface {
	GetPassword(ctx context.Context, name string) ([]byte, error)
}
