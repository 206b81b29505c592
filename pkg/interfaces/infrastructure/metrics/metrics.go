// Package metrics 定义密钥核心操作指标的上报接口
//
// 实现在 internal/core/infrastructure/metrics；
// 上报内容只有操作名、结果分类和耗时，不含任何密钥材料或明文。
package metrics

import "time"

// 结果标签
const (
	// ResultOK 操作成功
	ResultOK = "ok"
	// ResultRejected 验证类操作返回 false
	ResultRejected = "rejected"
)

// OperationRecorder 操作指标记录器
type OperationRecorder interface {
	// Observe 记录一次操作；result 为 ResultOK、ResultRejected 或错误分类（types.KindOf）
	Observe(op, result string, elapsed time.Duration)
}
