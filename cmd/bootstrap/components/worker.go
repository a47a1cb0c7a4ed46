package components

import (
	"context"
	"log/slog"

	"todo-notifier/internal/infra/listener"
	"todo-notifier/internal/pkg/clock"
	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/pkg/schedule"
	"todo-notifier/internal/scheduler"
	"todo-notifier/internal/usecase/commands"
	"todo-notifier/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// WorkerModule runs the two background trigger sources: the twice-daily
// sweep and the Postgres task_changed listener.
var WorkerModule = fx.Module("worker",
	fx.Invoke(
		RegisterScheduler,
		RegisterListener,
	),
)

func RegisterScheduler(lc fx.Lifecycle, cfg config.Config, daily *schedule.Daily, clk clock.Clock, cmds commands.NotificationCommands, uow shared.UnitOfWork) {
	if !cfg.Notify.SchedulerEnabled {
		slog.Info("sweep scheduler disabled")
		return
	}
	s := scheduler.New(daily, clk, cmds.RunSweep, uow.CommandReads())
	lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
}

func RegisterListener(lc fx.Lifecycle, cfg config.Config, pool *pgxpool.Pool, cmds commands.NotificationCommands, logger *slog.Logger) {
	if !cfg.Notify.ListenEnabled {
		slog.Info("task change listener disabled")
		return
	}
	handle := func(ctx context.Context, id uuid.UUID) error {
		_, err := cmds.HandleTaskChanged(ctx, id)
		return err
	}
	l := listener.NewTaskChangedListener(pool, cfg.Notify, handle, logger)
	lc.Append(fx.Hook{OnStart: l.Start, OnStop: l.Stop})
}
