package console

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка запроса
	RequestDuration *prometheus.HistogramVec

	// Traffic: общее кол-во запросов
	TotalRequests *prometheus.CounterVec

	// Бизнес: переходы статусов и срабатывания fraud-проверки
	TransitionsTotal *prometheus.CounterVec
	FraudFlagged     prometheus.Counter

	// Saturation: заполненность буфера операционного аудита
	AuditBufferFill prometheus.Gauge

	// Состояние Circuit Breaker вебхука (0 - ок, 1 - выбило)
	WebhookBreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — если рег не передан, используем локальный,
	// который никуда не подключен (удобно в тестах)
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polis_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "polis_requests_total",
			Help: "Total number of processed requests.",
		}, []string{"route", "method"}),

		TransitionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "polis_transitions_total",
			Help: "Policy status transitions by action and outcome.",
		}, []string{"action", "outcome"}), // outcome: ok, invalid, conflict

		FraudFlagged: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "polis_fraud_flagged_total",
			Help: "Policies flagged by fraud screening at creation.",
		}),

		AuditBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "polis_audit_buffer_utilization",
			Help: "Current number of events in audit buffer.",
		}),

		WebhookBreakerState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "polis_webhook_breaker_state",
			Help: "Current state of the decision webhook circuit breaker (0=closed, 1=open).",
		}),
	}
}
