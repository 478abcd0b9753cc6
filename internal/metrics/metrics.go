package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BuzzLyutic/serverless-todo/internal/repo"
)

// Collector holds the Prometheus metrics for one process. Each collector owns
// its registry, so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of store operations",
			},
			[]string{"operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	c.registry.MustRegister(c.HTTPRequests, c.HTTPDuration, c.StoreOperations, c.StoreDuration)
	return c
}

// Handler exposes the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// InstrumentStore wraps store so every call is counted and timed.
func (c *Collector) InstrumentStore(store repo.Store) repo.Store {
	return &instrumentedStore{next: store, c: c}
}

type instrumentedStore struct {
	next repo.Store
	c    *Collector
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.c.StoreOperations.WithLabelValues(op, status).Inc()
	s.c.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Put(ctx context.Context, item repo.Item) error {
	start := time.Now()
	err := s.next.Put(ctx, item)
	s.observe("put", start, err)
	return err
}

func (s *instrumentedStore) Query(ctx context.Context, q repo.Query) (repo.QueryResult, error) {
	start := time.Now()
	res, err := s.next.Query(ctx, q)
	s.observe("query", start, err)
	return res, err
}

func (s *instrumentedStore) Update(ctx context.Context, m repo.Mutation) (repo.Item, error) {
	start := time.Now()
	item, err := s.next.Update(ctx, m)
	s.observe("update", start, err)
	return item, err
}

func (s *instrumentedStore) Delete(ctx context.Context, key repo.Key) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}
