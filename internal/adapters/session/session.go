package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"paraiso_verde/internal/domain"
)

const CookieName = "pv_session"

var ErrNoSession = errors.New("session: none")

// Claims is the signed session body. The upstream credentials ride along so
// each request can speak to the API as the visitor.
type Claims struct {
	UserID    int64  `json:"uid"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	FirstName string `json:"fn,omitempty"`
	LastName  string `json:"ln,omitempty"`
	APICookie string `json:"ac,omitempty"`
	APIToken  string `json:"at,omitempty"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

func (m *Manager) Issue(u *domain.SessionUser) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:    u.ID,
		Role:      u.Role,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		APICookie: u.Creds.Cookie,
		APIToken:  u.Creds.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(u.ID),
			Issuer:    "paraiso-web",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) Parse(token string) (*domain.SessionUser, error) {
	c := &Claims{}
	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("paraiso-web"),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if c.UserID == 0 {
		return nil, ErrNoSession
	}
	return &domain.SessionUser{
		ID:        c.UserID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
		Creds:     domain.Credentials{Cookie: c.APICookie, Token: c.APIToken},
	}, nil
}

// Start signs u into the session cookie.
func (m *Manager) Start(w http.ResponseWriter, u *domain.SessionUser) error {
	tok, err := m.Issue(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the signed-in visitor, or ErrNoSession.
func (m *Manager) Read(r *http.Request) (*domain.SessionUser, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	return m.Parse(c.Value)
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
