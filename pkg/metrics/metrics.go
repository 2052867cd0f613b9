package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供示例与宿主进程注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		StepRunDuration, StepRunTotal,
		ValidationFailTotal, CallHistoryLen,
	)
}

// StepRunDuration Step 单次 Run 耗时（秒）
var StepRunDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "stepcore_run_duration_seconds",
		Help:    "Step 单次 Run 耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"step"},
)

// StepRunTotal Run 总数（按结果）
var StepRunTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stepcore_run_total",
		Help: "Run 总数（按结果）",
	},
	[]string{"step", "outcome"}, // completed | failed
)

// ValidationFailTotal schema 校验失败计数（含 ignore 策略下放行的）
var ValidationFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "stepcore_validation_fail_total",
		Help: "schema 校验失败计数",
	},
	[]string{"step", "direction"}, // input | output
)

// CallHistoryLen 各 Step 当前 Call History 长度
var CallHistoryLen = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "stepcore_call_history_len",
		Help: "各 Step 当前 Call History 长度",
	},
	[]string{"step"},
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供宿主 HTTP 层复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
