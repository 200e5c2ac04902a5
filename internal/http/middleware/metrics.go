package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shamsacademy/academy-backend/internal/observability"
)

// WebhookRoute is the provider callback route. Its calls are also counted
// per payment method as inbound provider traffic.
const WebhookRoute = "/api/payments/webhook/:method"

var unmeteredRoutes = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Metrics records API requests by route template. Health and scrape routes
// are left out; unmatched paths share one "unmatched" series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if unmeteredRoutes[c.FullPath()] {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		dur := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(code), dur)

		if route == WebhookRoute {
			method := strings.ToLower(strings.TrimSpace(c.Param("method")))
			m.ObserveProviderCall(method, "webhook", webhookOutcome(code), dur)
		}
	}
}

func webhookOutcome(code int) string {
	switch {
	case code < 300:
		return "ok"
	case code == 401 || code == 403:
		return "rejected"
	case code < 500:
		return "client_error"
	default:
		return "error"
	}
}
