package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"todoapi/internal/adapter/http/handler"
	"todoapi/internal/adapter/http/helper"
	"todoapi/internal/adapter/http/middleware"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
	"todoapi/pkg/middlewares"
)

type HandlersConfig struct {
	AuthHandler   *handler.AuthHandler
	TodoHandler   *handler.TodoHandler
	HealthHandler *handler.HealthHandler
}

type Dependencies struct {
	Config      *config.Config
	Logger      *config.LokiLogger
	Verifier    port.IdentityVerifier
	RateLimiter *config.RateLimiter
	Metrics     *telemetry.AppMetrics
	Registry    prometheus.Gatherer
}

func SetupRouter(handlers HandlersConfig, deps Dependencies) *gin.Engine {
	router := gin.New()
	production := deps.Config.IsProduction()

	if err := router.SetTrustedProxies(deps.Config.HTTP.TrustedProxies); err != nil {
		deps.Logger.Warn(context.Background(), "Ignoring invalid trusted proxies", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	middlewares.SetupGinMiddleware(router, deps.Config, deps.Metrics, deps.Logger)

	router.Use(
		middleware.Recovery(deps.Logger.Zap()),
		middleware.CurrentMiddleware(production),
		middleware.SecurityHeaders(production),
		middleware.CORS(deps.Config.HTTP.CORSOrigins),
	)

	router.NoRoute(func(c *gin.Context) {
		notFound := domain.NewNotFoundError("Route")
		notFound.Message = "Route " + c.Request.Method + " " + c.Request.URL.Path + " not found"
		helper.SendError(c, notFound)
	})

	router.GET("/health", handlers.HealthHandler.Health)

	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	limiter := deps.RateLimiter
	auth := middleware.AuthMiddleware(deps.Verifier)

	api := router.Group("/api/v1", limiter.Limit(config.TierGeneral))

	setupAuthRoutes(api.Group("/auth"), handlers.AuthHandler, auth, limiter)
	setupTodoRoutes(api.Group("/todos", auth), handlers.TodoHandler, limiter)

	return router
}

func setupAuthRoutes(group *gin.RouterGroup, h *handler.AuthHandler, auth gin.HandlerFunc, limiter *config.RateLimiter) {
	group.POST("/register", limiter.Limit(config.TierAuth), h.Register)
	group.POST("/login", limiter.Limit(config.TierAuth), h.Login)
	group.POST("/token", limiter.Limit(config.TierAuth), h.Token)

	group.GET("/me", auth, h.Me)
	group.PATCH("/me", auth, limiter.Limit(config.TierStrict), h.UpdateMe)
	group.DELETE("/me", auth, limiter.Limit(config.TierStrict), h.DeleteMe)
	group.POST("/logout", auth, h.Logout)
}

// Static segments must be registered before /:id.
func setupTodoRoutes(group *gin.RouterGroup, h *handler.TodoHandler, limiter *config.RateLimiter) {
	group.GET("/stats", h.Stats)
	group.POST("", limiter.Limit(config.TierCreate), h.Create)
	group.GET("", limiter.Limit(config.TierSearch), h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", limiter.Limit(config.TierStrict), h.Delete)
}
