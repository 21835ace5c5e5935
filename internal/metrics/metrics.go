// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "backoffice_auth"

const (
	OutcomeSuccess          = "success"
	OutcomeInvalid          = "invalid_credentials"
	OutcomeDisabled         = "disabled"
	OutcomeLocked           = "locked"
	OutcomeValidationFailed = "validation_failed"
	OutcomeConflict         = "conflict"
	OutcomeUnknownEmail     = "unknown_email"
	OutcomeMailFailed       = "mail_failed"
	OutcomeInvalidToken     = "invalid_token"
	OutcomeError            = "error"

	StageRequested = "requested"
	StageCompleted = "completed"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	logins  *prometheus.CounterVec
	signups *prometheus.CounterVec
	resets  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password reset requests and redemptions by outcome.",
		}, []string{"stage", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.logins, m.signups, m.resets)
	}
	return m
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Signup(outcome string) {
	if m == nil {
		return
	}
	m.signups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PasswordReset(stage, outcome string) {
	if m == nil {
		return
	}
	m.resets.WithLabelValues(stage, outcome).Inc()
}
