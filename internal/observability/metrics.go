package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	upstreamCallCounter   *prometheus.CounterVec
	onboardingCounter     *prometheus.CounterVec
	imagePrepCounter      *prometheus.CounterVec
	payoutCounter         *prometheus.CounterVec
	activeFlowsGauge      *prometheus.GaugeVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		upstreamCallCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "moneybox_upstream_calls_total",
			Help: "Calls to the MoneyBox backend by operation and outcome",
		}, []string{"op", "result"})

		onboardingCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_events_total",
			Help: "Onboarding wizard transitions and submission outcomes",
		}, []string{"event"})

		imagePrepCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "image_preparation_total",
			Help: "Image preparation pipeline outcomes",
		}, []string{"result"})

		payoutCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payout_flow_transitions_total",
			Help: "Payout flow state transitions",
		}, []string{"from", "to"})

		activeFlowsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "active_flows",
			Help: "Flows currently held in memory",
		}, []string{"kind"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			upstreamCallCounter,
			onboardingCounter,
			imagePrepCounter,
			payoutCounter,
			activeFlowsGauge,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementUpstreamCall(op, result string) {
	if upstreamCallCounter == nil {
		return
	}
	upstreamCallCounter.WithLabelValues(op, result).Inc()
}

func IncrementOnboardingEvent(event string) {
	if onboardingCounter == nil {
		return
	}
	onboardingCounter.WithLabelValues(event).Inc()
}

func IncrementImagePreparation(result string) {
	if imagePrepCounter == nil {
		return
	}
	imagePrepCounter.WithLabelValues(result).Inc()
}

func IncrementPayoutTransition(from, to string) {
	if payoutCounter == nil {
		return
	}
	payoutCounter.WithLabelValues(from, to).Inc()
}

func SetActiveFlows(kind string, n int) {
	if activeFlowsGauge == nil {
		return
	}
	activeFlowsGauge.WithLabelValues(kind).Set(float64(n))
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
