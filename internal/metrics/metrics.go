package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics содержит все метрики приложения
type Metrics struct {
	logger *zap.Logger

	// Счетчики
	referralSignups  *prometheus.CounterVec
	conversions      prometheus.Counter
	leadsCaptured    *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec

	// Гистограммы
	commissionAmount prometheus.Histogram
	httpDuration     *prometheus.HistogramVec
}

// New создает новый экземпляр метрик
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger: logger,

		referralSignups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "referral_signups_total",
				Help: "Количество обработанных реферальных регистраций",
			},
			[]string{"result"}, // tracked, duplicate, not_found
		),

		conversions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "referral_conversions_total",
				Help: "Количество зафиксированных оплаченных конверсий",
			},
		),

		leadsCaptured: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_captured_total",
				Help: "Количество сохраненных лидов",
			},
			[]string{"source"},
		),

		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upstream_requests_total",
				Help: "Количество обращений к внешним API",
			},
			[]string{"provider", "status"}, // provider: chat, geocode; status: success, failed
		),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Количество HTTP запросов",
			},
			[]string{"method", "path", "status"},
		),

		commissionAmount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "commission_amount",
				Help:    "Размер комиссии за конверсию",
				Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
			},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Время обработки HTTP запроса в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	// Регистрируем все метрики
	prometheus.MustRegister(
		m.referralSignups,
		m.conversions,
		m.leadsCaptured,
		m.upstreamRequests,
		m.httpRequests,
		m.commissionAmount,
		m.httpDuration,
	)

	return m
}

// RecordSignup записывает результат обработки реферальной регистрации
func (m *Metrics) RecordSignup(result string) {
	m.referralSignups.WithLabelValues(result).Inc()
}

// RecordConversion записывает оплаченную конверсию и размер комиссии
func (m *Metrics) RecordConversion(commission float64) {
	m.conversions.Inc()
	m.commissionAmount.Observe(commission)
}

// RecordLead записывает сохраненного лида
func (m *Metrics) RecordLead(source string) {
	m.leadsCaptured.WithLabelValues(source).Inc()
}

// RecordUpstream записывает обращение к внешнему API
func (m *Metrics) RecordUpstream(provider string, success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	m.upstreamRequests.WithLabelValues(provider, status).Inc()
}

// RecordHTTP записывает обработанный HTTP запрос
func (m *Metrics) RecordHTTP(method, path, status string, durationSeconds float64) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(durationSeconds)
}
