package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r *gin.Engine, runH *RunHandler) {
	r.GET("/healthz", func(c *gin.Context) { Success(c, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	{
		runs := api.Group("/runs")
		{
			runs.POST("", runH.Create)
			runs.GET("", runH.List)
			runs.GET("/:id", runH.Get)
			runs.GET("/:id/provenance", runH.Provenance)
		}
	}
}

// NewEngine returns a gin engine with panic recovery, request logging to log
// and the API routes.
func NewEngine(runH *RunHandler, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	RegisterRoutes(r, runH)

	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
			"client", c.ClientIP(),
		}

		switch {
		case status >= 500:
			log.Error("request", attrs...)
		case status >= 400:
			log.Warn("request", attrs...)
		default:
			log.Info("request", attrs...)
		}
	}
}
