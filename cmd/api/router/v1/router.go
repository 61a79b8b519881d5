package v1

import (
	"context"
	"net/http"
	"time"

	httpHandler "go-roomchat/internal/pkg/chat/presentation/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readinessTimeout = 2 * time.Second

// Pinger is a backing service the readiness check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes mounts all version 1 API routes under /api/v1, plus the
// health, readiness and metrics endpoints at the root.
func RegisterRoutes(r *gin.Engine, deps httpHandler.Deps, gatherer prometheus.Gatherer, checks map[string]Pinger) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/healthz", readiness(checks))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	// Pass the wired dependencies down to the HTTP layer
	httpHandler.RegisterRoutes(v1, deps)
}

// readiness pings every dependency and answers 503 when any of them fails.
func readiness(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		report := make(gin.H, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, report)
	}
}
