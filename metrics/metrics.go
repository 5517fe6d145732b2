package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginError              = "error"
)

var (
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_logins_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})
	// Reason is for operators only; clients always see a plain 401.
	GateRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_access_gate_rejections_total",
		Help: "Total number of requests rejected by the access gate",
	}, []string{"reason"})
	RateLimitRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encore_rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
	RateLimitErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encore_rate_limit_errors_total",
		Help: "Total number of rate limiter backend failures",
	})
	TracksUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "encore_tracks_uploaded_total",
		Help: "Total number of offline tracks stored",
	})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "encore_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "encore_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(Logins)
	prometheus.MustRegister(GateRejections)
	prometheus.MustRegister(RateLimitRejections)
	prometheus.MustRegister(RateLimitErrors)
	prometheus.MustRegister(TracksUploaded)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPRequestDuration)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
