package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for both services. Services keep
// a possibly-nil *Metrics; increment methods are nil-safe so unit tests do
// not register collectors.
type Metrics struct {
	usersRegistered       prometheus.Counter
	logins                prometheus.Counter
	loginFailures         prometheus.Counter
	notificationsSent     prometheus.Counter
	notificationFailures  prometheus.Counter
	passwordResetRequests prometheus.Counter
	provisioningAttempts  prometheus.Counter
	provisioningExhausted prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		usersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_users_registered_total",
			Help: "Total number of credentials created",
		}),
		logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_logins_total",
			Help: "Total number of successful logins",
		}),
		loginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_login_failures_total",
			Help: "Total number of rejected logins",
		}),
		notificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_notifications_sent_total",
			Help: "Total number of dispatched email notifications",
		}),
		notificationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_notification_failures_total",
			Help: "Total number of failed email notification dispatches",
		}),
		passwordResetRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_password_reset_requests_total",
			Help: "Total number of password reset requests",
		}),
		provisioningAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_provisioning_attempts_total",
			Help: "Total number of identity resolution attempts at startup",
		}),
		provisioningExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "warden_provisioning_exhausted_total",
			Help: "Total number of exhausted provisioning runs",
		}),
	}
}

func (m *Metrics) IncUsersRegistered() { m.inc(func() { m.usersRegistered.Inc() }) }

func (m *Metrics) IncLogins() { m.inc(func() { m.logins.Inc() }) }

func (m *Metrics) IncLoginFailures() { m.inc(func() { m.loginFailures.Inc() }) }

func (m *Metrics) IncNotificationsSent() { m.inc(func() { m.notificationsSent.Inc() }) }

func (m *Metrics) IncNotificationFailures() { m.inc(func() { m.notificationFailures.Inc() }) }

func (m *Metrics) IncPasswordResetRequests() { m.inc(func() { m.passwordResetRequests.Inc() }) }

func (m *Metrics) IncProvisioningAttempts() { m.inc(func() { m.provisioningAttempts.Inc() }) }

func (m *Metrics) IncProvisioningExhausted() { m.inc(func() { m.provisioningExhausted.Inc() }) }

func (m *Metrics) inc(f func()) {
	if m != nil {
		f()
	}
}
