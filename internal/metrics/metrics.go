// Package metrics exposes Prometheus counters for the share-token
// subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Validation outcome labels.
const (
	OutcomeOK             = "ok"
	OutcomeInvalid        = "invalid"
	OutcomeRevoked        = "revoked"
	OutcomeExpired        = "expired"
	OutcomeAuthRequired   = "auth_required"
	OutcomeWrongRecipient = "wrong_recipient"
	OutcomeError          = "error"
)

var (
	shareValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medivault_share_validations_total",
			Help: "Share token validation count by outcome",
		},
		[]string{"outcome"},
	)

	sharesIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medivault_shares_issued_total",
			Help: "Total share tokens issued",
		},
	)

	sharesRevoked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medivault_shares_revoked_total",
			Help: "Total share tokens revoked",
		},
	)

	registered bool
)

// Init registers the collectors. Must be called once at startup.
func Init() {
	if registered {
		return
	}
	prometheus.MustRegister(shareValidations, sharesIssued, sharesRevoked)
	registered = true
}

// RecordShareValidation counts one validation by outcome.
func RecordShareValidation(outcome string) {
	shareValidations.WithLabelValues(outcome).Inc()
}

// RecordShareIssued counts one successful issuance.
func RecordShareIssued() {
	sharesIssued.Inc()
}

// RecordShareRevoked counts one revocation state change.
func RecordShareRevoked() {
	sharesRevoked.Inc()
}
