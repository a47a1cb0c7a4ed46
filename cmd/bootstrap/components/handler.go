package components

import (
	"todo-notifier/internal/handler"
	"todo-notifier/internal/handler/api"
	"todo-notifier/internal/handler/middleware"
	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/usecase"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewNotificationHandler,
		NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewAuthMiddleware(cfg config.Config, validator usecase.TokenValidator) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(validator, cfg.Auth.Disabled)
}
