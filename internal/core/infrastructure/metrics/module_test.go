package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/keycore/internal/config"
	"github.com/weisyn/keycore/pkg/types"
)

func counterValue(t *testing.T, r *PrometheusRecorder, op, result string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, r.operations.WithLabelValues(op, result).Write(&m))
	return m.GetCounter().GetValue()
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	r.Observe("sign", "ok", time.Millisecond)
	r.Observe("sign", "ok", time.Millisecond)
	r.Observe("decrypt", "authentication_failed", time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, r, "sign", "ok"))
	assert.Equal(t, 1.0, counterValue(t, r, "decrypt", "authentication_failed"))

	t.Run("重复注册复用收集器", func(t *testing.T) {
		again, err := NewPrometheusRecorder(reg)
		require.NoError(t, err)
		again.Observe("sign", "ok", time.Millisecond)
		assert.Equal(t, 3.0, counterValue(t, r, "sign", "ok"))
	})
}

func TestProvideRecorder(t *testing.T) {
	t.Run("默认关闭", func(t *testing.T) {
		provider, err := config.NewProvider(nil)
		require.NoError(t, err)
		rec, err := ProvideRecorder(ModuleParams{Provider: provider})
		require.NoError(t, err)
		assert.IsType(t, NopRecorder{}, rec)
	})

	t.Run("启用后注册到注入的Registerer", func(t *testing.T) {
		enabled := true
		provider, err := config.NewProvider(&types.AppConfig{
			Crypto: &types.UserCryptoConfig{EnableMetrics: &enabled},
		})
		require.NoError(t, err)

		reg := prometheus.NewRegistry()
		rec, err := ProvideRecorder(ModuleParams{Provider: provider, Registerer: reg})
		require.NoError(t, err)
		rec.Observe("hash", "ok", time.Microsecond)

		families, err := reg.Gather()
		require.NoError(t, err)
		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.Contains(t, names, "keycore_crypto_operations_total")
		assert.Contains(t, names, "keycore_crypto_operation_duration_seconds")
	})
}
