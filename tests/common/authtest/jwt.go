//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/pkg/jwt"

	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	service *jwt.Service
}

func NewJWTHelper(cfg config.AuthConfig) *JWTHelper {
	return &JWTHelper{service: jwt.NewService(cfg.Secret, cfg.Issuer)}
}

func (h *JWTHelper) GenerateToken(t *testing.T, subject string, scopes ...string) string {
	t.Helper()
	token, err := h.service.GenerateToken(subject, time.Hour, scopes...)
	require.NoError(t, err)
	return token
}

// token for a caller allowed on every /api route
func (h *JWTHelper) ServiceToken(t *testing.T) string {
	t.Helper()
	return h.GenerateToken(t, "webapp", jwt.ScopeSweep, jwt.ScopeTaskChanged)
}
