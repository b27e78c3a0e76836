package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/adapters/session"
)

// maxBody bounds every request; a voucher image plus form fields fits.
const maxBody = 12 << 20

type Options struct {
	Sessions *session.Manager

	// CSRFKey must be 32 bytes. With CSRFDisabled the forms carry no token.
	CSRFKey      []byte
	CSRFDisabled bool
	SecureCookie bool

	// TrustProxy takes the client address from X-Forwarded-For and friends.
	// Set it only when a reverse proxy in front rewrites those headers.
	TrustProxy bool
}

type Server struct{ mux *chi.Mux }

func New(opts Options) *Server {
	m := chi.NewRouter()

	if opts.TrustProxy {
		m.Use(chimw.RealIP)
	}
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	m.Use(Timeout(15 * time.Second))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))
	m.Use(BodyLimit(maxBody))
	if !opts.CSRFDisabled {
		m.Use(CSRF(opts.CSRFKey, opts.SecureCookie))
	}
	m.Use(Session(opts.Sessions))

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}

// CSRF checks the token on every unsafe request. Over plain HTTP the
// Referer check for TLS origins is skipped.
func CSRF(key []byte, secure bool) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().Err(csrf.FailureReason(r)).Str("path", r.URL.Path).Msg("csrf rejected")
			http.Error(w, "El formulario expiró. Recarga la página e inténtalo de nuevo.", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if secure {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
