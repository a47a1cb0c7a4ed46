package components

import (
	"log/slog"
	"time"

	"todo-notifier/internal/domain/notification"
	"todo-notifier/internal/infra/mailer"
	"todo-notifier/internal/pkg/clock"
	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/pkg/schedule"
	"todo-notifier/internal/usecase"
	"todo-notifier/internal/usecase/commands"
	"todo-notifier/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	NewLocation,
	clock.NewRealClock,
	NewPolicy,
	NewSchedule,
	NewEmailSender,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewRenderer,
		NewDispatcher,
		NewNotificationCommands,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewLocation(cfg config.Config) (*time.Location, error) {
	return cfg.Notify.Location()
}

func NewPolicy(cfg config.Config, loc *time.Location) notification.Policy {
	p := notification.DefaultPolicy(loc)
	p.OverdueInterval = cfg.Notify.OverdueInterval
	p.DriftTolerance = cfg.Notify.DriftTolerance
	p.FreshWindow = cfg.Notify.FreshWindow
	return p
}

func NewSchedule(cfg config.Config) (*schedule.Daily, error) {
	return cfg.Notify.Schedule()
}

func NewEmailSender(cfg config.Config, logger *slog.Logger) (shared.EmailSender, error) {
	return mailer.NewSender(cfg.Mail, logger)
}

func NewRenderer(cfg config.Config, loc *time.Location) *commands.Renderer {
	return commands.NewRenderer(loc, cfg.Mail.AppBaseURL, cfg.Mail.FromName)
}

func NewDispatcher(cfg config.Config, sender shared.EmailSender, uow shared.UnitOfWork, renderer *commands.Renderer, clk clock.Clock) *commands.Dispatcher {
	return commands.NewDispatcher(sender, uow, renderer, clk, cfg.Notify.SendTimeout)
}

func NewNotificationCommands(
	cfg config.Config,
	tasks shared.TaskReadStore,
	uow shared.UnitOfWork,
	dispatcher *commands.Dispatcher,
	policy notification.Policy,
	daily *schedule.Daily,
	clk clock.Clock,
) commands.NotificationCommands {
	return commands.NewNotificationUseCase(tasks, uow, dispatcher, policy, daily, clk, commands.SweepOptions{
		PageSize:    cfg.Notify.SweepPageSize,
		Concurrency: cfg.Notify.SweepConcurrency,
	})
}
