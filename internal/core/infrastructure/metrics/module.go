// Package metrics 提供基于 Prometheus 的操作指标
//
// 指标：
//   - keycore_crypto_operations_total{op,result}
//   - keycore_crypto_operation_duration_seconds{op}
//
// 注册到调用方提供的 prometheus.Registerer；未启用时使用空实现。
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/weisyn/keycore/pkg/interfaces/config"
	metricsintf "github.com/weisyn/keycore/pkg/interfaces/infrastructure/metrics"
)

const (
	namespace = "keycore"
	subsystem = "crypto"
)

// PrometheusRecorder 将操作计数与耗时写入 Prometheus
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// 确保实现接口
var _ metricsintf.OperationRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder 创建并注册指标
//
// 同一 Registerer 重复注册时复用已注册的收集器。
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Total number of key-core operations by result",
		},
		[]string{"op", "result"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of key-core operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs ~ 2.6s
		},
		[]string{"op"},
	)

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &PrometheusRecorder{operations: operations, duration: duration}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe 记录一次操作
func (r *PrometheusRecorder) Observe(op, result string, elapsed time.Duration) {
	r.operations.WithLabelValues(op, result).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// NopRecorder 不做任何记录
type NopRecorder struct{}

// Observe 空实现
func (NopRecorder) Observe(string, string, time.Duration) {}

// ModuleParams 指标模块依赖
type ModuleParams struct {
	fx.In

	Provider   config.Provider
	Registerer prometheus.Registerer `optional:"true"`
	Logger     *zap.Logger           `optional:"true"`
}

// Module 返回指标模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideRecorder),
	)
}

// ProvideRecorder 按配置提供记录器
//
// 未启用时返回 NopRecorder；启用但未注入 Registerer 时注册到 prometheus.DefaultRegisterer。
func ProvideRecorder(params ModuleParams) (metricsintf.OperationRecorder, error) {
	opts := params.Provider.GetCrypto()
	if opts == nil || !opts.EnableMetrics {
		return NopRecorder{}, nil
	}
	reg := params.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	recorder, err := NewPrometheusRecorder(reg)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		params.Logger.With(zap.String("module", "metrics")).Info("已启用密钥核心操作指标")
	}
	return recorder, nil
}
