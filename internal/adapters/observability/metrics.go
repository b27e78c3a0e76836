package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "paraiso"

var (
	PageRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Inbound page and form requests."},
		[]string{"route", "method", "status"},
	)
	PageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Inbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "api_requests_total", Help: "Calls to the hotel API."},
		[]string{"endpoint", "method", "status"},
	)
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds",
			Help:    "Hotel API call duration seconds.",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Catalog cache hits/misses/sets/dels."},
		[]string{"key", "event"},
	)
	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "bookings_total", Help: "Booking submissions by outcome."},
		[]string{"outcome"},
	)
)

// Serve exposes /metrics on a separate listener when addr is set.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(PageRequests, PageLatency, APIRequests, APILatency, CacheEvents, Bookings)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	PageRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	PageLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveAPI records one hotel API call; status 0 means transport failure.
func ObserveAPI(endpoint, method string, status int, dur time.Duration) {
	APIRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	APILatency.WithLabelValues(endpoint, method).Observe(dur.Seconds())
}

func ObserveCache(key, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(key, event).Inc()
}

func ObserveBooking(outcome string) { Bookings.WithLabelValues(outcome).Inc() }
