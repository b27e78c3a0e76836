package httpserver

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/adapters/session"
	"paraiso_verde/internal/app"
	"paraiso_verde/internal/domain"
)

// Handlers renders the site. Each page talks to one app service; nothing
// here calls the API client directly.
type Handlers struct {
	Auth     *app.AuthService
	Catalog  *app.CatalogService
	Booking  *app.BookingService
	Staff    *app.StaffService
	Contact  *app.ContactService
	Sessions *session.Manager

	// Health reports whether the remote API answers; nil skips the check.
	Health func(ctx context.Context) error

	rd *renderer
}

func (s *Server) MountHandlers(h *Handlers) error {
	rd, err := newRenderer()
	if err != nil {
		return err
	}
	h.rd = rd

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return err
	}
	authLimit := RateLimit(10, 5, h.tooManyAttempts)

	s.mux.Get("/healthz", h.healthz)
	s.mux.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assets))))

	s.mux.Get("/", h.home)
	s.mux.Get("/habitaciones", h.rooms)
	s.mux.Get("/servicios", h.services)
	s.mux.Get("/contacto", h.contactForm)
	s.mux.Post("/contacto", h.contactSubmit)

	s.mux.Get("/registro", h.registerForm)
	s.mux.With(authLimit).Post("/registro", h.registerSubmit)
	s.mux.With(RedirectAuthenticated).Get("/login", h.loginForm)
	s.mux.With(authLimit).Post("/login", h.loginSubmit)
	s.mux.Post("/logout", h.logout)

	s.mux.Get("/reservar", h.bookingSearch)
	s.mux.Get("/reservar/habitacion/{id}", h.bookingForm)
	s.mux.Post("/reservar/habitacion/{id}", h.bookingSubmit)
	s.mux.Get("/reservar/codigo/{codigo}", h.bookingDone)
	s.mux.Get("/reservar/codigo/{codigo}/qr.png", h.bookingQR)

	s.mux.Route("/dashboard", func(r chi.Router) {
		r.Use(RequireStaff)
		r.Get("/", h.dashboard)

		r.Get("/habitaciones", h.staffRooms)
		r.Get("/habitaciones/nueva", h.staffRoomNew)
		r.Post("/habitaciones", h.staffRoomCreate)
		r.Get("/habitaciones/{id}/editar", h.staffRoomEdit)
		r.Post("/habitaciones/{id}", h.staffRoomUpdate)
		r.Post("/habitaciones/{id}/eliminar", h.staffRoomDelete)

		r.Get("/reservas", h.staffReservations)
		r.Get("/reservas/export.xlsx", h.staffReservationsExport)
		r.Get("/reservas/{id}", h.staffReservation)
		r.Post("/reservas/{id}/confirmar", h.staffReservationConfirm)
		r.Post("/reservas/{id}/rechazar", h.staffReservationReject)

		r.Get("/usuarios", h.staffUsers)
		r.Get("/usuarios/nuevo", h.staffUserNew)
		r.Post("/usuarios", h.staffUserCreate)
		r.Get("/usuarios/{id}/editar", h.staffUserEdit)
		r.Post("/usuarios/{id}", h.staffUserUpdate)
		r.Post("/usuarios/{id}/desactivar", h.staffUserDeactivate)

		r.Get("/mensajes", h.staffInbox)
	})

	s.mux.NotFound(h.notFound)
	return nil
}

/********** helpers **********/

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	return n
}

func formInt64(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	return n
}

// sessionExpired ends our session when the API no longer accepts the
// visitor's credentials. It reports whether it already answered.
func (h *Handlers) sessionExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if app.StatusOf(err) != http.StatusUnauthorized || CurrentUser(r.Context()) == nil {
		return false
	}
	h.Sessions.Clear(w)
	target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
	if r.Method != http.MethodGet {
		target = "/login"
	}
	redirectFlash(w, r, target, "error", "Tu sesión expiró. Inicia sesión nuevamente.")
	return true
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusNotFound, "notfound", page{Title: "Página no encontrada"})
}

func (h *Handlers) tooManyAttempts(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusTooManyRequests, "notice", page{
		Title: "Demasiados intentos",
		Flash: flash{Error: "Demasiados intentos. Espera un minuto e inténtalo de nuevo."},
	})
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			log.Warn().Err(err).Msg("api health failed")
			writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "remote API unreachable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

/********** marketing pages **********/

type homeView struct {
	Types []domain.RoomType
}

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Hotel Paraíso Verde", Nav: "home"}
	ts, err := h.Catalog.RoomTypes(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("home: room types")
	}
	p.Data = homeView{Types: ts}
	h.rd.render(w, r, http.StatusOK, "home", p)
}

func (h *Handlers) rooms(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Nuestras Habitaciones", Nav: "rooms"}
	rs, err := h.Catalog.Rooms(r.Context())
	if err != nil {
		p.Flash.Error = app.Message(err, "Error al cargar habitaciones")
	}
	p.Data = rs
	h.rd.render(w, r, http.StatusOK, "rooms", p)
}

func (h *Handlers) services(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusOK, "services", page{
		Title: "Servicios",
		Nav:   "services",
		Data:  h.rd.content["servicios"],
	})
}

func (h *Handlers) contactForm(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusOK, "contact", page{Title: "Contacto", Nav: "contact", Data: app.ContactForm{}})
}

func (h *Handlers) contactSubmit(w http.ResponseWriter, r *http.Request) {
	f := app.ContactForm{
		Name:    r.FormValue("nombre"),
		Email:   r.FormValue("email"),
		Phone:   r.FormValue("telefono"),
		Subject: r.FormValue("asunto"),
		Message: r.FormValue("mensaje"),
	}
	if _, err := h.Contact.Submit(r.Context(), f); err != nil {
		status := http.StatusUnprocessableEntity
		var fe *app.FormError
		if !errors.As(err, &fe) {
			status = http.StatusOK
			log.Error().Err(err).Msg("contact submit")
		}
		h.rd.render(w, r, status, "contact", page{
			Title: "Contacto", Nav: "contact", Data: f,
			Flash: flash{Error: app.Message(err, "No pudimos enviar tu mensaje. Intenta nuevamente.")},
		})
		return
	}
	redirectFlash(w, r, "/contacto", "ok", "¡Gracias! Recibimos tu mensaje y te responderemos pronto.")
}

/********** accounts **********/

func (h *Handlers) registerForm(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusOK, "register", page{Title: "Registro", Data: app.RegisterForm{}})
}

func (h *Handlers) registerSubmit(w http.ResponseWriter, r *http.Request) {
	f := app.RegisterForm{
		FirstName:    r.FormValue("nombre"),
		LastName:     r.FormValue("apellido"),
		Email:        r.FormValue("email"),
		Password:     r.FormValue("password"),
		Confirm:      r.FormValue("confirmPassword"),
		Phone:        r.FormValue("telefono"),
		Document:     r.FormValue("documento_identidad"),
		DocumentType: r.FormValue("tipo_documento"),
		BirthDate:    r.FormValue("fecha_nacimiento"),
	}
	if err := h.Auth.Register(r.Context(), f); err != nil {
		f.Password, f.Confirm = "", ""
		h.rd.render(w, r, http.StatusUnprocessableEntity, "register", page{
			Title: "Registro", Data: f,
			Flash: flash{Error: app.Message(err, "Error al registrar usuario")},
		})
		return
	}
	redirectFlash(w, r, "/login", "ok", "¡Registro exitoso! Ahora puedes iniciar sesión.")
}

type loginView struct {
	Email string
	Next  string
}

func (h *Handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusOK, "login", page{
		Title: "Iniciar Sesión",
		Data:  loginView{Next: safeNext(r.URL.Query().Get("next"), "")},
	})
}

func (h *Handlers) loginSubmit(w http.ResponseWriter, r *http.Request) {
	f := app.LoginForm{Email: r.FormValue("email"), Password: r.FormValue("password")}
	next := safeNext(r.FormValue("next"), "/dashboard")

	u, err := h.Auth.Login(r.Context(), f)
	if err != nil {
		var fe *app.FormError
		status := http.StatusBadGateway
		switch {
		case errors.As(err, &fe):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, domain.ErrBadCredential):
			status = http.StatusUnauthorized
		}
		h.rd.render(w, r, status, "login", page{
			Title: "Iniciar Sesión",
			Data:  loginView{Email: f.Email, Next: r.FormValue("next")},
			Flash: flash{Error: app.Message(err, domain.MsgConnection)},
		})
		return
	}
	if err := h.Sessions.Start(w, u); err != nil {
		log.Error().Err(err).Msg("session start")
		h.rd.render(w, r, http.StatusInternalServerError, "login", page{
			Title: "Iniciar Sesión",
			Data:  loginView{Email: f.Email},
			Flash: flash{Error: domain.MsgConnection},
		})
		return
	}
	log.Info().Int64("user", u.ID).Str("role", u.Role).Msg("login")
	if !u.IsStaff() && next == "/dashboard" {
		next = "/reservar"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.Logout(r.Context())
	h.Sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
