package config

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "socialsync_http_request_duration_seconds",
	Help:    "Latency of API requests by route and status",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

func SetupMiddleware(e *echo.Echo) {
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestMetrics)
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}
		httpRequestDuration.
			WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
