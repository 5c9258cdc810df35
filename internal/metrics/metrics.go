package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cryptomart/internal/pricing"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	pricingValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_validation_failures_total",
			Help: "Price or quantity inputs rejected by validation",
		},
		[]string{"reason"},
	)

	salesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sales_recorded_total",
			Help: "Total number of sales recorded",
		},
	)

	salesAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sales_amount_total",
			Help: "Sum of recorded sale totals",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(pricingValidationFailures)
	prometheus.MustRegister(salesRecorded)
	prometheus.MustRegister(salesAmount)
}

// Middleware records request counts and latency labelled by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordValidationFailure(reason string) {
	pricingValidationFailures.WithLabelValues(reason).Inc()
}

// RecordSale counts a sale. The amount counter is a float approximation and the
// exact total stays in the database.
func RecordSale(total pricing.Money) {
	salesRecorded.Inc()
	if f, err := strconv.ParseFloat(total.String(), 64); err == nil {
		salesAmount.Add(f)
	}
}
