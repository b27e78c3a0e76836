package mailer_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paraiso_verde/internal/adapters/mailer"
	"paraiso_verde/internal/domain"
)

type captureSender struct{ msgs []*mail.Message }

func (c *captureSender) DialAndSend(m ...*mail.Message) error {
	c.msgs = append(c.msgs, m...)
	return nil
}

func TestSend_BuildsMultipartMessage(t *testing.T) {
	cs := &captureSender{}
	m := mailer.NewWithSender("Hotel <reservas@paraiso.pe>", cs)

	err := m.Send(context.Background(), domain.Mail{
		To:          "ana@mail.pe",
		Subject:     "Reserva RES-1\r\nBcc: evil@x.com",
		Text:        "hola",
		HTML:        "<p>hola</p>",
		Attachments: []domain.Attachment{{Name: "qr.png", Data: []byte("PNG")}},
	})
	require.NoError(t, err)
	require.Len(t, cs.msgs, 1)

	var buf bytes.Buffer
	_, err = cs.msgs[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "To: ana@mail.pe")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, `filename="qr.png"`)
	assert.False(t, strings.Contains(raw, "\r\nBcc: evil@x.com"), "header injection")
}

func TestSend_LogsWhenUnconfigured(t *testing.T) {
	m := mailer.New("", 587, "", "", "x@y.pe")
	assert.NoError(t, m.Send(context.Background(), domain.Mail{To: "a@b.pe", Subject: "s"}))
}

func TestSend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := mailer.NewWithSender("x@y.pe", &captureSender{})
	assert.ErrorIs(t, m.Send(ctx, domain.Mail{To: "a@b.pe"}), context.Canceled)
}
