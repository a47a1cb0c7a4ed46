package mailer

import (
	"bytes"
	"io"
	"time"

	"todo-notifier/internal/pkg/errs"
	"todo-notifier/internal/usecase/shared"

	"github.com/emersion/go-message/mail"
)

// Compose renders msg as a single-part text/plain RFC 5322 message.
func Compose(from *mail.Address, msg shared.EmailMessage, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Name: msg.ToName, Address: msg.To}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, errs.Wrap(err, "generate message id")
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	for k, v := range msg.Headers {
		h.Set(k, v)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, errs.Wrap(err, "create message writer")
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, errs.Wrap(err, "write message body")
	}
	if err := w.Close(); err != nil {
		return nil, errs.Wrap(err, "close message writer")
	}
	return buf.Bytes(), nil
}
