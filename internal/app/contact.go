package app

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/domain"
)

// ContactService stores messages from the contact page and, when a
// front-desk address is configured, forwards a copy by mail.
type ContactService struct {
	store  domain.Store
	mailer domain.Mailer
	desk   string
	now    func() time.Time
}

func NewContactService(store domain.Store, m domain.Mailer, deskAddr string) *ContactService {
	return &ContactService{store: store, mailer: m, desk: deskAddr, now: time.Now}
}

func (s *ContactService) Submit(ctx context.Context, f ContactForm) (int64, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)
	if err := Validate(f); err != nil {
		return 0, err
	}
	if s.store == nil {
		return 0, &UserError{Msg: "El formulario de contacto no está disponible en este momento"}
	}
	in := domain.Inquiry{
		Name:      f.Name,
		Email:     f.Email,
		Phone:     strings.TrimSpace(f.Phone),
		Subject:   strings.TrimSpace(f.Subject),
		Message:   f.Message,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.store.SaveInquiry(ctx, in)
	if err != nil {
		return 0, &UserError{Msg: "No pudimos enviar tu mensaje. Intenta nuevamente.", Err: err}
	}
	if s.mailer != nil && s.desk != "" {
		subject := in.Subject
		if subject == "" {
			subject = "Consulta web"
		}
		m := domain.Mail{
			To:      s.desk,
			Subject: fmt.Sprintf("[Contacto #%d] %s", id, subject),
			Text:    fmt.Sprintf("%s <%s> %s\n\n%s\n", in.Name, in.Email, in.Phone, in.Message),
			HTML: fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; %s</p><p>%s</p>",
				html.EscapeString(in.Name), html.EscapeString(in.Email), html.EscapeString(in.Phone),
				strings.ReplaceAll(html.EscapeString(in.Message), "\n", "<br>")),
		}
		if err := s.mailer.Send(ctx, m); err != nil {
			log.Warn().Err(err).Int64("inquiry", id).Msg("contact forward failed")
		}
	}
	return id, nil
}
