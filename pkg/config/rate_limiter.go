package config

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoapi/internal/core/domain"
	"todoapi/internal/core/model/response"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg"
)

type RateLimitTier struct {
	Name     string
	Requests int
	Window   time.Duration
	// PerRoute counts each route separately instead of sharing one budget
	// across every route the tier guards.
	PerRoute bool
}

var (
	TierGeneral = RateLimitTier{Name: "general", Requests: 100, Window: time.Minute}
	TierAuth    = RateLimitTier{Name: "auth", Requests: 5, Window: 15 * time.Minute, PerRoute: true}
	TierCreate  = RateLimitTier{Name: "create", Requests: 30, Window: time.Minute, PerRoute: true}
	TierSearch  = RateLimitTier{Name: "search", Requests: 50, Window: time.Minute, PerRoute: true}
	TierStrict  = RateLimitTier{Name: "strict", Requests: 20, Window: time.Minute, PerRoute: true}
)

type RateLimiter struct {
	store      RateLimitStore
	logger     *zap.Logger
	metrics    *telemetry.AppMetrics
	enabled    bool
	trustedIPs map[string]struct{}
}

func NewRateLimiter(store RateLimitStore, logger *zap.Logger, metrics *telemetry.AppMetrics, cfg RateLimitConfig) *RateLimiter {
	if store == nil {
		store = NewMemoryStore()
	}

	trusted := make(map[string]struct{}, len(cfg.TrustedIPs))
	for _, ip := range cfg.TrustedIPs {
		trusted[ip] = struct{}{}
	}

	return &RateLimiter{
		store:      store,
		logger:     logger,
		metrics:    metrics,
		enabled:    cfg.Enabled,
		trustedIPs: trusted,
	}
}

// Limit guards the routes it is attached to with tier. Requests are counted
// per authenticated user when the auth middleware already ran, per client IP
// otherwise. Store failures let the request through.
func (rl *RateLimiter) Limit(tier RateLimitTier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.enabled {
			c.Next()
			return
		}

		if _, ok := rl.trustedIPs[c.ClientIP()]; ok {
			c.Next()
			return
		}

		identity, keyType := rl.identity(c)
		key := rl.key(c, tier, identity)

		count, resetAt, err := rl.store.Increment(c.Request.Context(), key, tier.Window)

		if err != nil {
			rl.logger.Error("Rate limit check failed",
				zap.String("key", key),
				zap.String("tier", tier.Name),
				zap.Error(err))
			c.Next()
			return
		}

		remaining := tier.Requests - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(tier.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if count > tier.Requests {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), tier.Name, keyType)
			}

			retryAfter := int(math.Ceil(time.Until(resetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("tier", tier.Name),
				zap.Int("limit", tier.Requests))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorResponse{
				Success:    false,
				Error:      fmt.Sprintf("Too many requests, please try again in %d seconds", retryAfter),
				Code:       domain.CodeRateLimitExceeded,
				StatusCode: http.StatusTooManyRequests,
			})
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), tier.Name, keyType)
		}

		c.Next()
	}
}

func (rl *RateLimiter) identity(c *gin.Context) (string, string) {
	if userID := c.GetString("x-user-id"); userID != "" {
		return "user_" + userID, "user"
	}

	return "ip_" + pkg.GetClientIP(c), "ip"
}

func (rl *RateLimiter) key(c *gin.Context, tier RateLimitTier, identity string) string {
	if !tier.PerRoute {
		return fmt.Sprintf("rate_limit:%s:%s", tier.Name, identity)
	}

	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	return fmt.Sprintf("rate_limit:%s:%s %s:%s", tier.Name, c.Request.Method, route, identity)
}
