package app

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/domain"
)

type AuthService struct {
	api domain.HotelAPI
}

func NewAuthService(api domain.HotelAPI) *AuthService { return &AuthService{api: api} }

// Login checks the credentials with the API. Rejections of any kind come
// back as ErrBadCredential; transport trouble as a connection message.
func (s *AuthService) Login(ctx context.Context, f LoginForm) (*domain.SessionUser, error) {
	f.Email = strings.TrimSpace(f.Email)
	if err := Validate(f); err != nil {
		return nil, err
	}
	u, creds, err := s.api.Login(ctx, f.Email, f.Password)
	if err != nil {
		switch st := StatusOf(err); {
		case st == http.StatusBadRequest, st == http.StatusUnauthorized,
			st == http.StatusForbidden, st == http.StatusNotFound:
			return nil, domain.ErrBadCredential
		case st == 0:
			return nil, &UserError{Msg: domain.MsgConnection, Err: err}
		}
		return nil, wrapStep(domain.MsgConnection, err)
	}
	if u.ID == 0 {
		return nil, domain.ErrBadCredential
	}
	if u.Email == "" {
		u.Email = f.Email
	}
	return &domain.SessionUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Creds:     creds,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, f RegisterForm) error {
	if err := Validate(f); err != nil {
		return err
	}
	if err := s.api.Register(ctx, f.Registration()); err != nil {
		return wrapStep("Error al registrar usuario", err)
	}
	return nil
}

// Logout tells the API the session is over; failures only get logged.
func (s *AuthService) Logout(ctx context.Context) {
	if domain.CredentialsFrom(ctx).Empty() {
		return
	}
	if err := s.api.Logout(ctx); err != nil {
		log.Debug().Err(err).Msg("api logout failed")
	}
}
