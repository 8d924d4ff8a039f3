package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eems"

// Outcome labels shared by the reset and login counters.
const (
	OutcomeSuccess   = "success"
	OutcomeNotFound  = "not_found"
	OutcomeInvalid   = "invalid_or_expired"
	OutcomeDelivery  = "delivery_failed"
	OutcomeRejected  = "validation_failed"
	OutcomeThrottled = "throttled"
	OutcomeError     = "error"
)

type Metrics struct {
	ResetSteps   *prometheus.CounterVec
	Logins       *prometheus.CounterVec
	MailDuration prometheus.Histogram
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResetSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_steps_total",
			Help:      "Password reset operations by step and outcome.",
		}, []string{"step", "outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		MailDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reset_mail_duration_seconds",
			Help:      "Time spent delivering password reset mail.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ResetSteps, m.Logins, m.MailDuration)
	}
	return m
}

func (m *Metrics) ResetStep(step, outcome string) {
	if m == nil {
		return
	}
	m.ResetSteps.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMail(seconds float64) {
	if m == nil {
		return
	}
	m.MailDuration.Observe(seconds)
}
