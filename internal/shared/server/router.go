package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"review-backend/internal/results"
	"review-backend/internal/reviews"
	"review-backend/internal/runs"
	"review-backend/internal/shared/config"
	"review-backend/internal/shared/metrics"
	"review-backend/internal/shared/server/middleware"
	"review-backend/internal/tickets"
)

// RouterDeps carries the handlers the router exposes.
type RouterDeps struct {
	Config  config.Config
	Reviews *reviews.Handler
	Runs    *runs.Handler
	Results *results.Handler
	Tickets *tickets.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")

	if deps.Reviews != nil {
		deps.Reviews.RegisterRoutes(api)
	}
	if deps.Results != nil {
		deps.Results.RegisterRoutes(api)
	}
	if deps.Tickets != nil {
		deps.Tickets.RegisterRoutes(api)
	}
	if deps.Runs != nil {
		limiter := middleware.NewRateLimiter(60, time.Minute)
		deps.Runs.RegisterRoutes(api.Group("", limiter.Middleware()))
	}

	return r
}

// Addr normalizes the configured port into a listen address.
func Addr(port string) string {
	p := strings.TrimSpace(port)
	if p == "" {
		p = "8080"
	}
	if !strings.HasPrefix(p, ":") {
		p = ":" + p
	}
	return p
}
