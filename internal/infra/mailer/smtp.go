package mailer

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"time"

	"todo-notifier/internal/pkg/config"
	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/shared"

	"github.com/emersion/go-message/mail"
)

type SMTPSender struct {
	cfg  config.MailConfig
	from *mail.Address
	now  func() time.Time
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:  cfg,
		from: &mail.Address{Name: cfg.FromName, Address: cfg.From},
		now:  time.Now,
	}
}

// Send returns nil only after the server accepted the DATA command.
// The context deadline bounds the dial and every subsequent read and write.
func (s *SMTPSender) Send(ctx context.Context, msg shared.EmailMessage) error {
	raw, err := Compose(s.from, msg, s.now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.SMTPHost, s.cfg.SMTPPort)
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errs.Wrapf(err, "dial smtp %s", addr)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// unblocks a stalled exchange when ctx is cancelled without a deadline
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return errs.Wrap(err, "smtp handshake")
	}
	defer c.Close()

	if err := s.deliver(c, msg.To, raw); err != nil {
		if ctx.Err() != nil {
			return errs.Wrap(ctx.Err(), "smtp send aborted")
		}
		return err
	}
	return nil
}

func (s *SMTPSender) deliver(c *smtp.Client, to string, raw []byte) error {
	if s.cfg.SMTPUseTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost, MinVersion: tls.VersionTLS12}); err != nil {
				return errs.Wrap(err, "smtp starttls")
			}
		}
	}
	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := c.Auth(auth); err != nil {
			return errs.Wrap(err, "smtp auth")
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return errs.Wrap(err, "smtp MAIL FROM")
	}
	if err := c.Rcpt(to); err != nil {
		return errs.Wrapf(err, "smtp RCPT TO %s", to)
	}
	w, err := c.Data()
	if err != nil {
		return errs.Wrap(err, "smtp DATA")
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return errs.Wrap(err, "smtp write body")
	}
	if err := w.Close(); err != nil {
		return errs.Wrap(err, "smtp server rejected message")
	}
	return c.Quit()
}
