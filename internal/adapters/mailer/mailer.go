package mailer

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-mail/mail/v2"
	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/domain"
)

// Sender abstracts the SMTP dialer so tests can capture messages.
type Sender interface {
	DialAndSend(m ...*mail.Message) error
}

type Mailer struct {
	from   string
	sender Sender
}

var _ domain.Mailer = (*Mailer)(nil)

// New returns an SMTP mailer. With no host configured messages are only
// logged.
func New(host string, port int, user, pass, from string) *Mailer {
	m := &Mailer{from: from}
	if host != "" {
		d := mail.NewDialer(host, port, user, pass)
		d.Timeout = 10 * time.Second
		d.StartTLSPolicy = mail.OpportunisticStartTLS
		m.sender = d
	}
	return m
}

func NewWithSender(from string, s Sender) *Mailer { return &Mailer{from: from, sender: s} }

func (m *Mailer) Send(ctx context.Context, msg domain.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.sender == nil {
		log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("[MOCK EMAIL] smtp not configured")
		return nil
	}
	return m.sender.DialAndSend(m.build(msg))
}

func (m *Mailer) build(msg domain.Mail) *mail.Message {
	out := mail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", headerSafe(msg.To))
	out.SetHeader("Subject", headerSafe(msg.Subject))
	out.SetDateHeader("Date", time.Now())

	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	out.SetBody("text/plain", text)
	if msg.HTML != "" {
		out.AddAlternative("text/html", msg.HTML)
	}
	for _, a := range msg.Attachments {
		data := a.Data
		out.Attach(a.Name, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return out
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}
