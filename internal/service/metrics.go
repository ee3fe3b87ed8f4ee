package service

import "github.com/prometheus/client_golang/prometheus"

var (
	loginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_login_total", Help: "Password logins by result"},
		[]string{"result"},
	)
	tokenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_token_verify_total", Help: "Bearer token verifications by result"},
		[]string{"result"},
	)
	uploadCleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "upload_cleanup_failures_total", Help: "Best-effort image removals that failed"},
	)
)

func init() { prometheus.MustRegister(loginTotal, tokenTotal, uploadCleanupFailures) }
