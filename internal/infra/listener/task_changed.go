package listener

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// TaskChangedHandler evaluates one task; its outcome is logged by the caller.
type TaskChangedHandler func(ctx context.Context, taskID uuid.UUID) error

// TaskChangedListener holds a dedicated pool connection in LISTEN mode and
// forwards every task id published on the channel to a bounded set of
// workers, so one slow send does not hold back the events queued behind it.
type TaskChangedListener struct {
	pool    *pgxpool.Pool
	channel string
	handle  TaskChangedHandler
	logger  *slog.Logger
	workers *errgroup.Group

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTaskChangedListener(pool *pgxpool.Pool, cfg config.NotifyConfig, handle TaskChangedHandler, logger *slog.Logger) *TaskChangedListener {
	return &TaskChangedListener{
		pool:    pool,
		channel: cfg.ListenChannel,
		handle:  handle,
		logger:  logger.With(slog.String("component", "task_changed_listener")),
		workers: newWorkers(cfg.ListenWorkers),
	}
}

func newWorkers(n int) *errgroup.Group {
	if n <= 0 {
		n = 1
	}
	g := new(errgroup.Group)
	g.SetLimit(n)
	return g
}

func (l *TaskChangedListener) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(ctx)
	}()
	return nil
}

func (l *TaskChangedListener) Stop(ctx context.Context) error {
	if l.cancel != nil {
		l.cancel()
	}
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		_ = l.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *TaskChangedListener) run(ctx context.Context) {
	delay := minReconnectDelay
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("listener disconnected, reconnecting",
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = nextDelay(delay)
	}
}

func (l *TaskChangedListener) listen(ctx context.Context) error {
	pc, err := l.pool.Acquire(ctx)
	if err != nil {
		return errs.Wrap(err, "acquire listen connection")
	}
	// a LISTENing session must not go back to the pool
	conn := pc.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return errs.Wrapf(err, "listen %s", l.channel)
	}
	l.logger.Info("listening for task changes", slog.String("channel", l.channel))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return errs.Wrap(err, "wait for notification")
		}
		l.enqueue(ctx, n.Payload)
	}
}

// enqueue blocks while every worker is busy, leaving further events buffered
// on the connection.
func (l *TaskChangedListener) enqueue(ctx context.Context, payload string) {
	l.workers.Go(func() error {
		l.dispatch(ctx, payload)
		return nil
	})
}

func (l *TaskChangedListener) dispatch(ctx context.Context, payload string) {
	taskID, err := uuid.Parse(payload)
	if err != nil {
		l.logger.Warn("dropping malformed task_changed payload", slog.String("payload", payload))
		return
	}
	if err := l.handle(ctx, taskID); err != nil {
		l.logger.Error("task change handling failed",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		return maxReconnectDelay
	}
	return d
}
