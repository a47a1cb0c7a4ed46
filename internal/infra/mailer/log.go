package mailer

import (
	"context"
	"log/slog"

	"todo-notifier/internal/usecase/shared"
)

// LogSender only logs. Used with MAIL_DRIVER=log in development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg shared.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "email not sent (log driver)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("notification_key", msg.Headers[shared.HeaderNotificationKey]))
	return nil
}
