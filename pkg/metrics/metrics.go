package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portfolio", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portfolio", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portfolio", Name: "contact_submissions_total", Help: "Contact submissions by outcome (created, invalid, rate_limited, error)."},
		[]string{"result"},
	)
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "portfolio", Name: "notifications_total", Help: "Notification deliveries by sink and result."},
		[]string{"sink", "result"},
	)
	NotificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "portfolio", Name: "notifications_dropped_total", Help: "Notifications discarded because the dispatch queue was full or closed."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(Submissions)
	reg.MustRegister(Notifications)
	reg.MustRegister(NotificationsDropped)
}
