package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"todo-notifier/internal/usecase"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
	disabled       bool
}

const (
	ctxServiceKey = "service_identity"
	// scopes are not checked when auth is disabled
	devSubject = "dev"
)

func NewAuthMiddleware(tokenValidator usecase.TokenValidator, disabled bool) *AuthMiddleware {
	if disabled {
		slog.Warn("API authentication is disabled")
	}
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
		disabled:       disabled,
	}
}

func (m *AuthMiddleware) RequireService() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.disabled {
			c.Set(ctxServiceKey, &usecase.ServiceIdentity{Subject: devSubject})
			c.Next()
			return
		}

		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		identity, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxServiceKey, identity)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.disabled {
			c.Next()
			return
		}

		identity, ok := GetServiceIdentity(c)
		if !ok {
			// should be used after RequireService()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}

		if !slices.Contains(identity.Scopes, scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetServiceIdentity(c *gin.Context) (*usecase.ServiceIdentity, bool) {
	v, exists := c.Get(ctxServiceKey)
	if !exists {
		return nil, false
	}

	identity, ok := v.(*usecase.ServiceIdentity)
	return identity, ok && identity != nil
}
