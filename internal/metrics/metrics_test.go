package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	m := New(prometheus.NewRegistry())

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/posts/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "missing"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/posts/:id", "404")))
}

func TestFeedAndRealtime(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFeed(10, 3, 5*time.Millisecond)
	m.SetRealtime(4, 2)
	m.EventIn("typing-start")
	m.Dropped("queue_full")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedRequestsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FeedItemsFiltered))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WSOnlineUsers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSEventsTotal.WithLabelValues("in", "typing-start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSDroppedTotal.WithLabelValues("queue_full")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFeed(1, 1, time.Millisecond)
		m.SetRealtime(1, 1)
		m.EventIn("x")
		m.EventOut("x")
		m.Dropped("x")
	})
}
