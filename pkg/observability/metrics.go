package observability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics counts the auth flow's externally visible events.
type AuthMetrics struct {
	CallbacksReceived metric.Int64Counter
	LoginOutcomes     metric.Int64Counter
}

// NewAuthMetrics registers the agent's counters on the global meter
// provider.
func NewAuthMetrics() (*AuthMetrics, error) {
	meter := otel.Meter("ifit-agent")

	callbacks, err := meter.Int64Counter("auth_callbacks_received_total",
		metric.WithDescription("Auth callbacks delivered by the platform"))
	if err != nil {
		return nil, err
	}

	logins, err := meter.Int64Counter("auth_login_outcomes_total",
		metric.WithDescription("Login flow outcomes by result"))
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		CallbacksReceived: callbacks,
		LoginOutcomes:     logins,
	}, nil
}

// RecordLogin counts one login outcome ("committed" or "failed").
func (m *AuthMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.LoginOutcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// PrometheusHandler adapts the scrape handler for a gin route.
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}
