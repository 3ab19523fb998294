// Package metrics exports relay telemetry to Prometheus.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docrelay"

// Observer captures telemetry for relay operations.
type Observer interface {
	RecordHTTP(method, route string, status int, duration time.Duration)
	RecordCredential(category string, err error)
	RecordRemoteDestroy(duration time.Duration, err error)
	RecordClear(recordsFound, remoteFailures int, err error)
	RecordRateLimited()
}

// PrometheusObserver implements Observer with registered collectors.
type PrometheusObserver struct {
	httpDuration   *prometheus.HistogramVec
	credentials    *prometheus.CounterVec
	destroyLatency prometheus.Histogram
	destroyErrors  prometheus.Counter
	clears         *prometheus.CounterVec
	clearedRecords prometheus.Counter
	rateLimited    prometheus.Counter
}

// NewPrometheusObserver registers every relay collector on reg. A nil reg
// means prometheus.DefaultRegisterer.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		credentials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credentials_issued_total",
			Help:      "Signed upload credentials by category and outcome.",
		}, []string{"category", "outcome"}),
		destroyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_destroy_duration_seconds",
			Help:      "Latency of media store destroy calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		destroyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_destroy_errors_total",
			Help:      "Media store destroy calls that failed.",
		}),
		clears: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_clears_total",
			Help:      "Cascade clears by outcome.",
		}, []string{"outcome"}),
		clearedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleared_records_total",
			Help:      "Upload records found by cascade clears.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-address limiter.",
		}),
	}

	collectors := []prometheus.Collector{
		o.httpDuration, o.credentials, o.destroyLatency, o.destroyErrors,
		o.clears, o.clearedRecords, o.rateLimited,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register relay metric: %w", err)
		}
	}
	return o, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (o *PrometheusObserver) RecordHTTP(method, route string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	o.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

func (o *PrometheusObserver) RecordCredential(category string, err error) {
	if o == nil {
		return
	}
	o.credentials.WithLabelValues(category, outcome(err)).Inc()
}

func (o *PrometheusObserver) RecordRemoteDestroy(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.destroyLatency.Observe(duration.Seconds())
	if err != nil {
		o.destroyErrors.Inc()
	}
}

// RecordClear counts a clear as partial when some remote deletes failed but
// the derived tables were emptied.
func (o *PrometheusObserver) RecordClear(recordsFound, remoteFailures int, err error) {
	if o == nil {
		return
	}
	o.clearedRecords.Add(float64(recordsFound))
	switch {
	case err != nil:
		o.clears.WithLabelValues("error").Inc()
	case remoteFailures > 0:
		o.clears.WithLabelValues("partial").Inc()
	default:
		o.clears.WithLabelValues("ok").Inc()
	}
}

func (o *PrometheusObserver) RecordRateLimited() {
	if o == nil {
		return
	}
	o.rateLimited.Inc()
}

type nopObserver struct{}

// Nop returns an Observer that records nothing.
func Nop() Observer { return nopObserver{} }

func (nopObserver) RecordHTTP(string, string, int, time.Duration) {}

func (nopObserver) RecordCredential(string, error) {}

func (nopObserver) RecordRemoteDestroy(time.Duration, error) {}

func (nopObserver) RecordClear(int, int, error) {}

func (nopObserver) RecordRateLimited() {}
