package middleware

import (
	"context"
	"errors"
	"iter"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cosmic "github.com/cosmicbank/cosmic-go"
)

// Metrics records a request counter and a latency histogram per endpoint.
// Both are labelled with the method, the path pattern and the outcome
// status ("error" when the call failed without a status).
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cosmic",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Calls made through the client, by outcome status.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cosmic",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Call latency including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Handle(ctx context.Context, req *cosmic.Request, next cosmic.Next) (*cosmic.Response, error) {
	start := time.Now()
	resp, err := next(ctx, req)
	m.observe(req, start, outcome(resp, err))
	return resp, err
}

func (m *Metrics) Stream(ctx context.Context, req *cosmic.Request, next cosmic.StreamNext) iter.Seq2[*cosmic.Response, error] {
	return func(yield func(*cosmic.Response, error) bool) {
		start := time.Now()
		status := "error"
		defer func() { m.observe(req, start, status) }()

		for resp, err := range next(ctx, req) {
			status = outcome(resp, err)
			if !yield(resp, err) {
				return
			}
		}
	}
}

// Requests returns the request counter, for tests and custom exporters.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}

func (m *Metrics) observe(req *cosmic.Request, start time.Time, status string) {
	m.requests.WithLabelValues(req.Method, req.PathPattern, status).Inc()
	m.latency.WithLabelValues(req.Method, req.PathPattern, status).Observe(time.Since(start).Seconds())
}

func outcome(resp *cosmic.Response, err error) string {
	if err != nil {
		var sc interface{ StatusCode() int }
		if errors.As(err, &sc) {
			return strconv.Itoa(sc.StatusCode())
		}
		return "error"
	}
	return strconv.Itoa(statusOf(resp))
}
