package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paraiso_verde/internal/adapters/session"
	"paraiso_verde/internal/app"
	"paraiso_verde/internal/domain"
)

// ---- fakes ----

type stubAPI struct {
	domain.HotelAPI

	mu        sync.Mutex
	loginUser domain.User
	types     []domain.RoomType
	rooms     []domain.Room
	clients   []domain.Client
	rsv       domain.Reservation
	rsvs      []domain.Reservation
	users     []domain.User
	stats     domain.Stats
	statsErr  error

	upload   *domain.VoucherUpload
	statuses map[int64]string
	creds    []domain.Credentials
}

func (a *stubAPI) seen(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.creds = append(a.creds, domain.CredentialsFrom(ctx))
}

func (a *stubAPI) Login(ctx context.Context, email, password string) (domain.User, domain.Credentials, error) {
	if password != "secreto" {
		return domain.User{}, domain.Credentials{}, &apiErr{status: 401, msg: "Credenciales inválidas"}
	}
	return a.loginUser, domain.Credentials{Cookie: "connect.sid=abc"}, nil
}

func (a *stubAPI) Logout(ctx context.Context) error { return nil }

func (a *stubAPI) RoomTypes(ctx context.Context) ([]domain.RoomType, error) { return a.types, nil }

func (a *stubAPI) Rooms(ctx context.Context) ([]domain.Room, error) {
	a.seen(ctx)
	return a.rooms, nil
}

func (a *stubAPI) Room(ctx context.Context, id int64) (domain.Room, error) {
	for _, r := range a.rooms {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Room{}, &apiErr{status: 404, msg: "Habitación no encontrada"}
}

func (a *stubAPI) Availability(ctx context.Context, q domain.AvailabilityQuery) ([]domain.Room, error) {
	return a.rooms, nil
}

func (a *stubAPI) ClientsByUser(ctx context.Context, userID int64) ([]domain.Client, error) {
	a.seen(ctx)
	return a.clients, nil
}

func (a *stubAPI) CreateReservation(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error) {
	return a.rsv, nil
}

func (a *stubAPI) UploadVoucher(ctx context.Context, v domain.VoucherUpload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.upload = &v
	return nil
}

func (a *stubAPI) Reservations(ctx context.Context, status string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range a.rsvs {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *stubAPI) SetReservationStatus(ctx context.Context, id int64, status string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.statuses == nil {
		a.statuses = map[int64]string{}
	}
	a.statuses[id] = status
	return nil
}

func (a *stubAPI) Users(ctx context.Context) ([]domain.User, error) { return a.users, nil }

func (a *stubAPI) Stats(ctx context.Context, period string) (domain.Stats, error) {
	a.seen(ctx)
	return a.stats, a.statsErr
}

type apiErr struct {
	status int
	msg    string
}

func (e *apiErr) Error() string       { return e.msg }
func (e *apiErr) HTTPStatus() int     { return e.status }
func (e *apiErr) UserMessage() string { return e.msg }

type memStore struct {
	mu        sync.Mutex
	inquiries []domain.Inquiry
	audit     []domain.AuditEvent
}

func (s *memStore) SaveInquiry(ctx context.Context, in domain.Inquiry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = int64(len(s.inquiries) + 1)
	s.inquiries = append(s.inquiries, in)
	return in.ID, nil
}

func (s *memStore) ListInquiries(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Inquiry(nil), s.inquiries...), nil
}

func (s *memStore) CountInquiries(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inquiries), nil
}

func (s *memStore) RecordAudit(ctx context.Context, ev domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, ev)
	return nil
}

func (s *memStore) RecentAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.audit...), nil
}

// ---- fixture ----

type fixture struct {
	api     *stubAPI
	store   *memStore
	mgr     *session.Manager
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := &stubAPI{
		loginUser: domain.User{ID: 7, Email: "ana@paraiso.ec", FirstName: "Ana", LastName: "Vera", Role: domain.RoleStaff},
		types:     []domain.RoomType{{ID: 1, Name: "Doble", MaxGuests: 2, BaseRate: 80}},
		rooms: []domain.Room{
			{ID: 11, Number: "101", Floor: 1, Status: domain.RoomFree, TypeID: 1, TypeName: "Doble", MaxGuests: 2, BaseRate: 100},
		},
		clients: []domain.Client{{ID: 3, UserID: 9}},
		rsv:     domain.Reservation{ID: 55, Code: "RES-55", CheckIn: "2030-01-10", CheckOut: "2030-01-12"},
		rsvs: []domain.Reservation{
			{ID: 55, Code: "RES-55", Status: domain.ReservationPending, ClientFirstName: "Luis", Total: 200},
			{ID: 56, Code: "RES-56", Status: domain.ReservationConfirmed, ClientFirstName: "Eva", Total: 90},
		},
		users: []domain.User{{ID: 7, Email: "ana@paraiso.ec", FirstName: "Ana", Role: domain.RoleStaff, Active: true}},
	}
	api.stats.Rooms.Total = 10
	api.stats.Rooms.Occupied = 4

	store := &memStore{}
	mgr := session.NewManager("test-secret", time.Hour, false)
	cat := app.NewCatalogService(api, nil, time.Minute)

	srv := New(Options{Sessions: mgr, CSRFDisabled: true})
	require.NoError(t, srv.MountHandlers(&Handlers{
		Auth:     app.NewAuthService(api),
		Catalog:  cat,
		Booking:  app.NewBookingService(api, cat, nil),
		Staff:    app.NewStaffService(api, cat, store),
		Contact:  app.NewContactService(store, nil, ""),
		Sessions: mgr,
	}))
	return &fixture{api: api, store: store, mgr: mgr, handler: srv.Mux()}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// as signs req in with the given role.
func (f *fixture) as(t *testing.T, req *http.Request, role string) *http.Request {
	t.Helper()
	tok, err := f.mgr.Issue(&domain.SessionUser{
		ID: 9, Email: "luis@correo.ec", FirstName: "Luis", LastName: "Paz", Role: role,
		Creds: domain.Credentials{Cookie: "connect.sid=xyz"},
	})
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tok})
	return req
}

func postForm(path string, v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func bookingRequest(t *testing.T, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="comprobante"; filename="pago.png"`)
		hdr.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost,
		"/reservar/habitacion/11?checkin=2030-01-10&checkout=2030-01-12&huespedes=2", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

// ---- tests ----

func TestPublicPages(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		path string
		want string
	}{
		{"/", "Doble"},
		{"/habitaciones", "101"},
		{"/servicios", "<h1>Nuestros Servicios</h1>"},
		{"/contacto", `name="mensaje"`},
		{"/registro", `name="confirmPassword"`},
		{"/login", `action="/login"`},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := f.do(httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), tc.want)
		})
	}
}

func TestNotFoundPage(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/no-existe", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/reservar/habitacion/999", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFlashFromQuery(t *testing.T) {
	f := newFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/login?ok="+url.QueryEscape("<b>listo</b>"), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "&lt;b&gt;listo&lt;/b&gt;")
}

func TestDashboardGate(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/login?next="))

	rr = f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard/usuarios", nil), domain.RoleClient))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))

	rr = f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard", nil), domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Panel de Control")
	assert.Contains(t, rr.Body.String(), "40%")

	// the visitor's upstream credentials travel with the API call
	require.NotEmpty(t, f.api.creds)
	assert.Equal(t, "connect.sid=xyz", f.api.creds[len(f.api.creds)-1].Cookie)
}

func TestLoginPage_RedirectsWhenSignedIn(t *testing.T) {
	f := newFixture(t)
	rr := f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/login", nil), domain.RoleStaff))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

// Each case gets its own fixture so the login throttle never kicks in.
func TestLogin(t *testing.T) {
	t.Run("staff lands on dashboard", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(postForm("/login", url.Values{"email": {"ana@paraiso.ec"}, "password": {"secreto"}}))
		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

		c := sessionCookie(rr)
		require.NotNil(t, c)
		assert.True(t, c.HttpOnly)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		u, err := f.mgr.Read(req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "connect.sid=abc", u.Creds.Cookie)
	})

	t.Run("client goes to booking", func(t *testing.T) {
		f := newFixture(t)
		f.api.loginUser.Role = domain.RoleClient
		rr := f.do(postForm("/login", url.Values{"email": {"ana@paraiso.ec"}, "password": {"secreto"}}))
		require.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/reservar", rr.Header().Get("Location"))
	})

	t.Run("next is honoured but kept on site", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(postForm("/login", url.Values{
			"email": {"ana@paraiso.ec"}, "password": {"secreto"}, "next": {"//evil.example"},
		}))
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))

		rr = f.do(postForm("/login", url.Values{
			"email": {"ana@paraiso.ec"}, "password": {"secreto"}, "next": {"/dashboard/reservas"},
		}))
		assert.Equal(t, "/dashboard/reservas", rr.Header().Get("Location"))
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(postForm("/login", url.Values{"email": {"ana@paraiso.ec"}, "password": {"nope"}}))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Credenciales incorrectas")
		assert.Nil(t, sessionCookie(rr))
	})

	t.Run("invalid form", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(postForm("/login", url.Values{"email": {"no-es-email"}, "password": {"x"}}))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "Ingresa un email válido")
	})
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"email": {"ana@paraiso.ec"}, "password": {"nope"}}

	for i := 0; i < 5; i++ {
		rr := f.do(postForm("/login", form))
		require.Equal(t, http.StatusUnauthorized, rr.Code, "attempt %d", i+1)
	}
	rr := f.do(postForm("/login", form))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// reading the form is never throttled
	rr = f.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLogin_RateLimitKeysOnPeerAddress(t *testing.T) {
	f := newFixture(t)
	form := url.Values{"email": {"ana@paraiso.ec"}, "password": {"nope"}}

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		req := postForm("/login", form)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i+1))
		codes = append(codes, f.do(req).Code)
	}
	assert.Equal(t, []int{401, 401, 401, 401, 401, 429}, codes)
}

func TestLogout_ClearsCookie(t *testing.T) {
	f := newFixture(t)
	rr := f.do(f.as(t, httptest.NewRequest(http.MethodPost, "/logout", nil), domain.RoleClient))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestExpiredUpstreamSession(t *testing.T) {
	f := newFixture(t)
	f.api.statsErr = &apiErr{status: 401, msg: "No autorizado"}

	rr := f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard", nil), domain.RoleStaff))
	require.Equal(t, http.StatusSeeOther, rr.Code)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard", loc.Query().Get("next"))
	assert.Contains(t, loc.Query().Get("error"), "sesión expiró")

	c := sessionCookie(rr)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}

func TestBookingSearch(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/reservar?checkin=2030-01-10&checkout=2030-01-12&huespedes=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/reservar/habitacion/11")

	rr = f.do(httptest.NewRequest(http.MethodGet, "/reservar?checkin=2030-01-10&checkout=2030-01-12&huespedes=4", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), domain.MsgNoAvailability)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/reservar?checkin=2030-01-12&checkout=2030-01-10", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), domain.ErrInvalidStay.Error())
}

func TestBookingSubmit(t *testing.T) {
	fields := map[string]string{"tipo_comprobante": "yape", "fecha_pago": "2030-01-01"}

	t.Run("anonymous is sent to login", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(bookingRequest(t, fields, []byte("png")))
		require.Equal(t, http.StatusSeeOther, rr.Code)
		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/login", loc.Path)
		assert.True(t, strings.HasPrefix(loc.Query().Get("next"), "/reservar/habitacion/11?"))
		assert.Equal(t, domain.ErrNotLoggedIn.Error(), loc.Query().Get("error"))
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(f.as(t, bookingRequest(t, fields, []byte("\x89PNG voucher")), domain.RoleClient))
		require.Equal(t, http.StatusSeeOther, rr.Code, rr.Body.String())

		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/reservar/codigo/RES-55", loc.Path)
		assert.Equal(t, domain.MsgBooked, loc.Query().Get("ok"))

		require.NotNil(t, f.api.upload)
		assert.Equal(t, int64(55), f.api.upload.ReservationID)
		assert.Equal(t, "yape", f.api.upload.Type)
		assert.Equal(t, 200.0, f.api.upload.Amount)
		assert.Equal(t, "pago.png", f.api.upload.FileName)
		assert.Equal(t, "image/png", f.api.upload.ContentType)

		rr = f.do(httptest.NewRequest(http.MethodGet, loc.String(), nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "/reservar/codigo/RES-55/qr.png")
	})

	t.Run("missing voucher", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(f.as(t, bookingRequest(t, fields, nil), domain.RoleClient))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), domain.ErrNoVoucher.Error())
		assert.Nil(t, f.api.upload)
	})

	t.Run("no client profile", func(t *testing.T) {
		f := newFixture(t)
		f.api.clients = nil
		rr := f.do(f.as(t, bookingRequest(t, fields, []byte("png")), domain.RoleClient))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), domain.ErrNoClient.Error())
	})
}

func TestBookingQR(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/reservar/codigo/RES-55/qr.png", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")))

	rr = f.do(httptest.NewRequest(http.MethodGet, "/reservar/codigo/"+strings.Repeat("X", 65)+"/qr.png", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestContact(t *testing.T) {
	f := newFixture(t)

	rr := f.do(postForm("/contacto", url.Values{"nombre": {"Eva"}, "email": {"eva@correo.ec"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="Eva"`)
	assert.Empty(t, f.store.inquiries)

	rr = f.do(postForm("/contacto", url.Values{
		"nombre": {"Eva"}, "email": {"eva@correo.ec"}, "asunto": {"Eventos"}, "mensaje": {"¿Tienen salón?"},
	}))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/contacto?ok="))
	require.Len(t, f.store.inquiries, 1)
	assert.Equal(t, "Eventos", f.store.inquiries[0].Subject)

	rr = f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard/mensajes", nil), domain.RoleStaff))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "¿Tienen salón?")
}

func TestStaffReservations(t *testing.T) {
	f := newFixture(t)

	rr := f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard/reservas", nil), domain.RoleStaff))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "RES-55")
	assert.NotContains(t, body, "RES-56")

	rr = f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard/reservas?estado=todas", nil), domain.RoleStaff))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "RES-56")

	rr = f.do(f.as(t, postForm("/dashboard/reservas/55/confirmar", url.Values{"back": {"/dashboard/reservas"}}), domain.RoleStaff))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/dashboard/reservas?ok="))
	assert.Equal(t, domain.ReservationConfirmed, f.api.statuses[55])

	require.Len(t, f.store.audit, 1)
	assert.Equal(t, int64(9), f.store.audit[0].ActorID)
}

func TestStaffReservationsExport(t *testing.T) {
	f := newFixture(t)
	rr := f.do(f.as(t, httptest.NewRequest(http.MethodGet, "/dashboard/reservas/export.xlsx?estado=todas", nil), domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "reservas-todas-")
	assert.Equal(t, "2", rr.Header().Get("X-Row-Count"))
	// xlsx is a zip archive
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
}

func TestStaffRoomForm_Rejects(t *testing.T) {
	f := newFixture(t)
	rr := f.do(f.as(t, postForm("/dashboard/habitaciones", url.Values{"numero": {""}, "piso": {"1"}}), domain.RoleStaff))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Número y piso son requeridos")
	assert.Empty(t, f.store.audit)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	mgr := session.NewManager("s", time.Hour, false)
	srv := New(Options{Sessions: mgr, CSRFDisabled: true})
	require.NoError(t, srv.MountHandlers(&Handlers{
		Sessions: mgr,
		Health:   func(context.Context) error { return errors.New("dial tcp: refused") },
	}))
	rr = httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	mgr := session.NewManager("s", time.Hour, false)
	api := &stubAPI{}
	srv := New(Options{Sessions: mgr, CSRFKey: bytes.Repeat([]byte("k"), 32)})
	require.NoError(t, srv.MountHandlers(&Handlers{
		Auth:     app.NewAuthService(api),
		Sessions: mgr,
	}))

	rr := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="csrf_token"`)

	rr = httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr, postForm("/login", url.Values{"email": {"a@b.ec"}, "password": {"x"}}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
