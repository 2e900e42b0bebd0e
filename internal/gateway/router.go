// Package gateway exposes the normalized CMS views over HTTP for the site
// frontend. Reads degrade to empty results when the CMS is unavailable;
// mutations forward the caller's bearer token and surface backend errors.
package gateway

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Dongwon38/wpyvr-sub000/internal/contact"
	"github.com/Dongwon38/wpyvr-sub000/internal/health"
	"github.com/Dongwon38/wpyvr-sub000/pkg/client"
)

// RouterConfig holds the router's dependencies. Contact and Health are
// optional.
type RouterConfig struct {
	CMS          *client.Client
	Contact      *contact.Service
	Health       *health.HealthChecker
	CORSOrigins  []string
	RateLimitRPS float64
	Logger       *zap.Logger
}

// NewRouter builds the gin engine with the standard middleware chain and
// every route mounted under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: !containsWildcard(cfg.CORSOrigins),
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(SecurityHeaders())
	router.Use(BodyLimit(1 << 20))

	if cfg.RateLimitRPS > 0 {
		burst := int(cfg.RateLimitRPS * 2)
		if burst < 1 {
			burst = 1
		}
		router.Use(RateLimiter(cfg.RateLimitRPS, burst))
	}

	router.Use(PrometheusMiddleware())
	router.Use(RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", readyHandler(cfg.Health))
	router.GET("/metrics", MetricsHandler())

	v1 := router.Group("/api/v1")
	NewContentHandler(cfg.CMS, logger).Register(v1)
	NewHubHandler(cfg.CMS, logger).Register(v1)
	NewProfileHandler(cfg.CMS, logger).Register(v1)
	if cfg.Contact != nil {
		NewContactHandler(cfg.Contact, logger).Register(v1)
	}
	return router
}

func readyHandler(checker *health.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		upstreams := checker.Snapshot()
		if !checker.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "upstreams": upstreams})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "upstreams": upstreams})
	}
}
