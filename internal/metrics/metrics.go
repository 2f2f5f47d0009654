package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SettlementMetrics struct {
	escrowsOpened     *prometheus.CounterVec
	workConfirmations *prometheus.CounterVec
	escrowsReleased   prometheus.Counter
	releasedAmount    prometheus.Counter
	bidsSubmitted     prometheus.Counter
	bidsAwarded       prometheus.Counter
	bidsExpired       prometheus.Counter
	paymentsConfirmed *prometheus.CounterVec
	integrityErrors   *prometheus.CounterVec
}

type HTTPMetrics struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

var (
	settlementOnce     sync.Once
	settlementRegistry *SettlementMetrics

	httpOnce     sync.Once
	httpRegistry *HTTPMetrics
)

func Settlement() *SettlementMetrics {
	settlementOnce.Do(func() {
		settlementRegistry = &SettlementMetrics{
			escrowsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_escrows_opened_total",
				Help: "Escrows moved to holding, by order origin.",
			}, []string{"origin"}),
			workConfirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_work_confirmations_total",
				Help: "Work status updates by party and value.",
			}, []string{"party", "value"}),
			escrowsReleased: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "settlement_escrows_released_total",
				Help: "Escrows released by an admin.",
			}),
			releasedAmount: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "settlement_released_amount_total",
				Help: "Sum of released escrow amounts in major units.",
			}),
			bidsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "bidding_bids_submitted_total",
				Help: "Bids submitted by sellers.",
			}),
			bidsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "bidding_bids_awarded_total",
				Help: "Bids awarded and converted to orders.",
			}),
			bidsExpired: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "bidding_bids_expired_total",
				Help: "Pending bids marked expired by the sweeper.",
			}),
			paymentsConfirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "checkout_payments_confirmed_total",
				Help: "Payment verifications by gateway and outcome.",
			}, []string{"gateway", "outcome"}),
			integrityErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "settlement_integrity_errors_total",
				Help: "Storage invariant violations detected by operation.",
			}, []string{"operation"}),
		}
		prometheus.MustRegister(
			settlementRegistry.escrowsOpened,
			settlementRegistry.workConfirmations,
			settlementRegistry.escrowsReleased,
			settlementRegistry.releasedAmount,
			settlementRegistry.bidsSubmitted,
			settlementRegistry.bidsAwarded,
			settlementRegistry.bidsExpired,
			settlementRegistry.paymentsConfirmed,
			settlementRegistry.integrityErrors,
		)
	})
	return settlementRegistry
}

func (m *SettlementMetrics) ObserveEscrowOpened(origin string) {
	if m == nil {
		return
	}
	m.escrowsOpened.WithLabelValues(origin).Inc()
}

func (m *SettlementMetrics) ObserveWorkConfirmation(party string, value bool) {
	if m == nil {
		return
	}
	label := "false"
	if value {
		label = "true"
	}
	m.workConfirmations.WithLabelValues(party, label).Inc()
}

func (m *SettlementMetrics) ObserveRelease(amount float64) {
	if m == nil {
		return
	}
	m.escrowsReleased.Inc()
	m.releasedAmount.Add(amount)
}

func (m *SettlementMetrics) ObserveBidSubmitted() {
	if m == nil {
		return
	}
	m.bidsSubmitted.Inc()
}

func (m *SettlementMetrics) ObserveBidAwarded() {
	if m == nil {
		return
	}
	m.bidsAwarded.Inc()
}

func (m *SettlementMetrics) ObserveBidsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bidsExpired.Add(float64(n))
}

func (m *SettlementMetrics) ObservePaymentConfirmed(gateway, outcome string) {
	if m == nil {
		return
	}
	m.paymentsConfirmed.WithLabelValues(gateway, outcome).Inc()
}

func (m *SettlementMetrics) ObserveIntegrityError(operation string) {
	if m == nil {
		return
	}
	m.integrityErrors.WithLabelValues(operation).Inc()
}

func HTTP() *HTTPMetrics {
	httpOnce.Do(func() {
		httpRegistry = &HTTPMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			}, []string{"route", "method", "status"}),
			durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
		}
		prometheus.MustRegister(httpRegistry.requests, httpRegistry.durations)
	})
	return httpRegistry
}

func (m *HTTPMetrics) Observe(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, status).Inc()
	m.durations.WithLabelValues(route, method).Observe(seconds)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
