package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/middleware"
)

const defaultTrustedProxy = "127.0.0.1"

// NewWriteRouter builds write-svc's Gin engine: POST /shorten plus a
// health check and a metrics endpoint, rate-limited the way
// encurtador's public write surface is.
func NewWriteRouter(h *WriteHandler, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetTrustedProxies([]string{defaultTrustedProxy})

	rl := middleware.NewRateLimiter()

	r.POST("/shorten", rl, h.Shorten)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	return r
}

// NewRedirectRouter builds redirect-svc's Gin engine: GET /{slug} and
// GET /{slug}/qr, both rate-limited against enumeration/scanning abuse.
func NewRedirectRouter(h *RedirectHandler, m *metrics.Metrics, corsOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetTrustedProxies([]string{defaultTrustedProxy})

	if corsOrigin != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins: []string{corsOrigin},
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	rl := middleware.NewRateLimiter()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/:slug/qr", rl, h.QR)
	r.GET("/:slug", rl, h.Redirect)

	return r
}
