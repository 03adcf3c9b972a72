package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 请求结果标签
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeStale     = "stale"
)

// Recorder 投票服务调用指标
type Recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	applied  *prometheus.CounterVec
}

// NewRecorder 创建指标并注册到 reg，reg 为 nil 时不注册
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votechain",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests issued to the voting service, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "votechain",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the voting service.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "votechain",
			Subsystem: "store",
			Name:      "refresh_results_total",
			Help:      "Refresh responses applied to or discarded by the poll store.",
		}, []string{"store", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(r.requests, r.duration, r.applied)
	}
	return r
}

// ObserveRequest 记录一次请求
func (r *Recorder) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(endpoint, outcome).Inc()
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveRefresh 记录刷新结果是否被应用
func (r *Recorder) ObserveRefresh(store string, applied bool) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if !applied {
		outcome = OutcomeStale
	}
	r.applied.WithLabelValues(store, outcome).Inc()
}
