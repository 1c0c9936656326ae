// Package metrics defines the Prometheus collectors for the API and the
// realtime hub. All methods are safe on a nil *Metrics so components can run
// uninstrumented in tests.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bubbly"

type Metrics struct {
	// Labels: method, route, status
	HTTPRequestsTotal *prometheus.CounterVec

	// Labels: method, route
	HTTPRequestDuration *prometheus.HistogramVec

	FeedRequestsTotal prometheus.Counter
	FeedItemsReturned prometheus.Histogram
	FeedItemsFiltered prometheus.Counter
	FeedBuildDuration prometheus.Histogram

	WSConnections prometheus.Gauge
	WSOnlineUsers prometheus.Gauge

	// Labels: direction (in, out), event
	WSEventsTotal *prometheus.CounterVec

	// Labels: reason (queue_full, rate_limited)
	WSDroppedTotal *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		FeedRequestsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "requests_total",
			Help:      "Feed pages built.",
		}),
		FeedItemsReturned: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "items_returned",
			Help:      "Items in a returned feed page.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50},
		}),
		FeedItemsFiltered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "items_filtered_total",
			Help:      "Fetched posts and shares removed by audience rules.",
		}),
		FeedBuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "build_duration_seconds",
			Help:      "Time to load, filter and rank one feed page.",
			Buckets:   prometheus.DefBuckets,
		}),

		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		WSOnlineUsers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "online_users",
			Help:      "Users with at least one open connection.",
		}),
		WSEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "events_total",
			Help:      "Realtime events by direction and name.",
		}, []string{"direction", "event"}),
		WSDroppedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "dropped_total",
			Help:      "Realtime events dropped by reason.",
		}, []string{"reason"}),
	}
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < 400 {
					status = 500
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Metrics) ObserveFeed(returned, filtered int, took time.Duration) {
	if m == nil {
		return
	}
	m.FeedRequestsTotal.Inc()
	m.FeedItemsReturned.Observe(float64(returned))
	m.FeedItemsFiltered.Add(float64(filtered))
	m.FeedBuildDuration.Observe(took.Seconds())
}

func (m *Metrics) SetRealtime(connections, onlineUsers int) {
	if m == nil {
		return
	}
	m.WSConnections.Set(float64(connections))
	m.WSOnlineUsers.Set(float64(onlineUsers))
}

func (m *Metrics) EventIn(event string) {
	if m == nil {
		return
	}
	m.WSEventsTotal.WithLabelValues("in", event).Inc()
}

func (m *Metrics) EventOut(event string) {
	if m == nil {
		return
	}
	m.WSEventsTotal.WithLabelValues("out", event).Inc()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.WSDroppedTotal.WithLabelValues(reason).Inc()
}
