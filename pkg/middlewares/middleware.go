package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

func MetricsMiddleware(metrics *telemetry.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

// SetupGinMiddleware installs the transport-level chain shared by every
// route: HTTPS enforcement, tracing, access logs and request metrics.
func SetupGinMiddleware(router *gin.Engine, cfg *config.Config, metrics *telemetry.AppMetrics, logger *config.LokiLogger) {
	httpsEnforcer := config.NewHTTPSEnforcer(logger.Zap(), cfg.HTTP.EnforceHTTPS)
	router.Use(httpsEnforcer.HTTPSMiddleware())

	if cfg.Telemetry.Enabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}

	router.Use(LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
}
