package mailer

import (
	"log/slog"

	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/shared"
)

func NewSender(cfg config.MailConfig, logger *slog.Logger) (shared.EmailSender, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "log":
		return NewLogSender(logger), nil
	default:
		return nil, errs.Newf("unknown MAIL_DRIVER %q", cfg.Driver)
	}
}
