package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServiceMetrics holds the business counters of the card service.
type ServiceMetrics struct {
	LoginCounter        prometheus.Counter
	RegisterCounter     prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec
	ProvisioningCounter *prometheus.CounterVec
	CardIssuanceCounter *prometheus.CounterVec
	ScanCounter         *prometheus.CounterVec
	DbOperationDuration *prometheus.HistogramVec
}

// InitMetrics registers the service metrics on reg using prefix for every name.
func InitMetrics(reg prometheus.Registerer, prefix string) *ServiceMetrics {
	factory := promauto.With(reg)

	return &ServiceMetrics{
		LoginCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_login_total",
			Help: "Total number of login attempts",
		}),
		RegisterCounter: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_auth_register_total",
			Help: "Total number of registration attempts",
		}),
		AuthErrorsCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors by reason",
		}, []string{"reason"}),
		ProvisioningCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_merchant_provisioning_total",
			Help: "Merchant provisioning outcomes (complete, degraded)",
		}, []string{"outcome"}),
		CardIssuanceCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_card_issuance_total",
			Help: "Business card issuance attempts by source and outcome",
		}, []string{"source", "outcome"}),
		ScanCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_card_scans_total",
			Help: "Public card retrievals by result",
		}, []string{"result"}),
		DbOperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// NewNop returns metrics bound to a throwaway registry, for tests and tools.
func NewNop() *ServiceMetrics {
	return InitMetrics(prometheus.NewRegistry(), "nop")
}

// TrackDBOperation returns a function that records the duration of a database operation
func (m *ServiceMetrics) TrackDBOperation(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		m.DbOperationDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthError increments the auth error counter for reason.
func (m *ServiceMetrics) RecordAuthError(reason string) {
	m.AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordProvisioning records whether a merchant was created with or without its card.
func (m *ServiceMetrics) RecordProvisioning(degraded bool) {
	outcome := "complete"
	if degraded {
		outcome = "degraded"
	}
	m.ProvisioningCounter.WithLabelValues(outcome).Inc()
}

// RecordCardIssuance records one issuance attempt; source is auto, manual or backfill.
func (m *ServiceMetrics) RecordCardIssuance(source string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.CardIssuanceCounter.WithLabelValues(source, outcome).Inc()
}

// RecordScan increments the scan counter for result.
func (m *ServiceMetrics) RecordScan(result string) {
	m.ScanCounter.WithLabelValues(result).Inc()
}
