package authcore

import "sync/atomic"

// MetricID identifies one operation-outcome counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts credential logins that produced a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credential logins.
	MetricLoginFailure
	// MetricTokenRenewalSuccess counts sliding renewals that produced a
	// fresh token.
	MetricTokenRenewalSuccess
	// MetricTokenRenewalFailure counts rejected token renewals.
	MetricTokenRenewalFailure
	// MetricPasswordChangeSuccess counts accepted password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeFailure counts rejected password changes.
	MetricPasswordChangeFailure
	// MetricRecoveryRequest counts issued recovery challenges.
	MetricRecoveryRequest
	// MetricRecoveryFallback counts challenges whose code was handed back
	// in plaintext because delivery was unavailable.
	MetricRecoveryFallback
	// MetricRecoveryValidateSuccess counts codes that validated.
	MetricRecoveryValidateSuccess
	// MetricRecoveryValidateFailure counts codes that did not validate.
	MetricRecoveryValidateFailure
	// MetricRecoveryResetSuccess counts completed password resets.
	MetricRecoveryResetSuccess
	// MetricRecoveryResetFailure counts rejected password resets.
	MetricRecoveryResetFailure
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free operation counters. When disabled, every
// operation is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance per the given config.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter identified by id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Snapshot returns a deep copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
