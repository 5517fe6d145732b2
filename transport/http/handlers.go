package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/metrics"
	"github.com/layer-3/encore/service"
	"go.uber.org/zap"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	log         *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         log,
	}
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues(metrics.LoginInvalidCredentials).Inc()
			c.JSON(http.StatusUnauthorized, gin.H{
				"authenticated": false,
				"error":         "Invalid credentials",
			})
			return
		}

		metrics.Logins.WithLabelValues(metrics.LoginError).Inc()
		h.log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	metrics.Logins.WithLabelValues(metrics.LoginSuccess).Inc()
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"token":         token.Raw,
		"userId":        token.Subject,
		"tokenType":     "Bearer",
		"expiresIn":     int(time.Until(token.ExpiresAt).Round(time.Second).Seconds()),
	})
}

// Me returns information about the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	user, err := h.authService.User(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.log.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   user.UserID,
		"username": user.Username,
	})
}

// Authorize checks if a user is authorized
func (h *AuthHandlers) Authorize(c *gin.Context) {
	// Reaching this handler means the gate already accepted the token
	identity, ok := IdentityFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authorized": true,
		"userId":     identity.UserID,
		"expiresAt":  identity.Expires.UTC().Format(time.RFC3339),
	})
}
