package middleware

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    httpRequestsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "querydesk_http_requests_total",
            Help: "Total number of HTTP requests",
        },
        []string{"method", "path", "status"},
    )

    httpRequestDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "querydesk_http_request_duration_seconds",
            Help:    "HTTP request duration in seconds",
            Buckets: prometheus.DefBuckets,
        },
        []string{"method", "path"},
    )
)

// Metrics records request counts and latencies labelled by route pattern,
// which keeps account and query ids out of the label space.
func Metrics() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            path := c.Path()
            if path == "" {
                path = "unmatched"
            }
            status := strconv.Itoa(responseStatus(c, err))
            httpRequestsTotal.WithLabelValues(c.Request().Method, path, status).Inc()
            httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
            return err
        }
    }
}

// responseStatus is the status the client will see once echo's error
// handler has run on err.
func responseStatus(c echo.Context, err error) int {
    if err == nil || c.Response().Committed {
        return c.Response().Status
    }
    var he *echo.HTTPError
    if errors.As(err, &he) {
        return he.Code
    }
    return http.StatusInternalServerError
}
