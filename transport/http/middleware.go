package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/metrics"
	"github.com/layer-3/encore/ports"
	"github.com/layer-3/encore/service"
	"go.uber.org/zap"
)

const (
	// ContextUserID is the gin context key holding the authorized user ID
	ContextUserID = "userID"

	msgUnauthorized    = "Unauthorized"
	msgInvalidToken    = "Invalid token"
	msgTooManyRequests = "Too many requests, please try again later."
	msgInternal        = "Internal server error"
)

type identityKey struct{}

// WithIdentity returns a context carrying the authorized identity
func WithIdentity(ctx context.Context, id *core.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by AuthMiddleware
func IdentityFromContext(ctx context.Context) (*core.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*core.Identity)
	return id, ok && id != nil
}

// RateLimitMiddleware admits each request against the client's window
// before anything else runs
func RateLimitMiddleware(limiter ports.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		decision, err := limiter.Admit(c.Request.Context(), key)
		if err != nil {
			metrics.RateLimitErrors.Inc()
			log.Error("rate limiter failed", zap.String("client", key), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			metrics.RateLimitRejections.Inc()
			retry := int(time.Until(decision.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": msgTooManyRequests})
			return
		}

		c.Next()
	}
}

// AuthMiddleware creates middleware that validates access tokens
func AuthMiddleware(authService *service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		identity, err := authService.Authorize(c.Request.Context(), header)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				log.Error("authorization failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
				return
			}

			reason := rejectionReason(header, err)
			metrics.GateRejections.WithLabelValues(reason).Inc()
			log.Debug("request rejected by access gate", zap.String("reason", reason), zap.Error(err))

			msg := msgInvalidToken
			if header == "" {
				msg = msgUnauthorized
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ContextUserID, identity.UserID)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

func rejectionReason(header string, err error) string {
	switch {
	case header == "":
		return "missing"
	case errors.Is(err, core.ErrTokenExpired):
		return "expired"
	case errors.Is(err, core.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, core.ErrTokenMalformed):
		return "malformed"
	default:
		return "scheme"
	}
}

// MetricsMiddleware records request counts and latencies per route
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
