package hotelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"paraiso_verde/internal/domain"
)

var _ domain.HotelAPI = (*Client)(nil)

// ---- auth ----

type loginData struct {
	domain.User
	Nested  *domain.User `json:"user"`
	Usuario *domain.User `json:"usuario"`
	Token   string       `json:"token"`
}

// Login checks credentials against the API and returns the user plus whatever
// the API set to recognise them later (cookies and/or a bearer token).
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, domain.Credentials, error) {
	var d loginData
	cl, err := jsonCall(http.MethodPost, "/api/auth/login", "/api/auth/login",
		map[string]string{"email": email, "password": password})
	if err != nil {
		return domain.User{}, domain.Credentials{}, err
	}
	res, err := c.do(ctx, cl, &d)
	if err != nil {
		return domain.User{}, domain.Credentials{}, err
	}
	u := d.User
	switch {
	case d.Nested != nil:
		u = *d.Nested
	case d.Usuario != nil:
		u = *d.Usuario
	}
	creds := domain.Credentials{Cookie: cookieHeader(res.header), Token: d.Token}
	if creds.Token == "" {
		creds.Token = res.env.Token
	}
	return u, creds, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, call{method: http.MethodPost, endpoint: "/api/auth/logout", path: "/api/auth/logout"}, nil)
	return err
}

// cookieHeader folds Set-Cookie values into a request Cookie header.
func cookieHeader(h http.Header) string {
	resp := http.Response{Header: h}
	var parts []string
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			continue
		}
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

func (c *Client) Register(ctx context.Context, r domain.Registration) error {
	cl, err := jsonCall(http.MethodPost, "/api/clientes", "/api/clientes", r)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, cl, nil)
	return err
}

// ---- catalog ----

func (c *Client) RoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	var out []domain.RoomType
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/tipos-habitacion", path: "/api/tipos-habitacion"}, &out)
	return out, err
}

func (c *Client) Rooms(ctx context.Context) ([]domain.Room, error) {
	var out []domain.Room
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/habitaciones", path: "/api/habitaciones"}, &out)
	return out, err
}

func (c *Client) Room(ctx context.Context, id int64) (domain.Room, error) {
	var out domain.Room
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/habitaciones/{id}", path: roomPath(id)}, &out)
	return out, err
}

func (c *Client) CreateRoom(ctx context.Context, in domain.RoomInput) error {
	return c.send(ctx, http.MethodPost, "/api/habitaciones", "/api/habitaciones", in)
}

func (c *Client) UpdateRoom(ctx context.Context, id int64, in domain.RoomInput) error {
	return c.send(ctx, http.MethodPut, "/api/habitaciones/{id}", roomPath(id), in)
}

func (c *Client) DeleteRoom(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, "/api/habitaciones/{id}", roomPath(id), nil)
}

func roomPath(id int64) string { return "/api/habitaciones/" + strconv.FormatInt(id, 10) }

func (c *Client) Availability(ctx context.Context, q domain.AvailabilityQuery) ([]domain.Room, error) {
	v := url.Values{}
	v.Set("fecha_checkin", q.CheckIn)
	v.Set("fecha_checkout", q.CheckOut)
	if q.RoomTypeID > 0 {
		v.Set("tipo_habitacion_id", strconv.FormatInt(q.RoomTypeID, 10))
	}
	var out []domain.Room
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/disponibilidad", path: "/api/disponibilidad", query: v}, &out)
	return out, err
}

// ---- reservations ----

func (c *Client) ClientsByUser(ctx context.Context, userID int64) ([]domain.Client, error) {
	v := url.Values{"usuario_id": {strconv.FormatInt(userID, 10)}}
	var out []domain.Client
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/clientes", path: "/api/clientes", query: v}, &out)
	return out, err
}

func (c *Client) CreateReservation(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error) {
	var out domain.Reservation
	cl, err := jsonCall(http.MethodPost, "/api/reservas", "/api/reservas", in)
	if err != nil {
		return out, err
	}
	_, err = c.do(ctx, cl, &out)
	return out, err
}

// Reservations lists reservations, narrowed server side by status when set.
func (c *Client) Reservations(ctx context.Context, status string) ([]domain.Reservation, error) {
	cl := call{method: http.MethodGet, endpoint: "/api/reservas", path: "/api/reservas"}
	if status != "" {
		cl.query = url.Values{"estado": {status}}
	}
	var out []domain.Reservation
	_, err := c.do(ctx, cl, &out)
	return out, err
}

func (c *Client) Reservation(ctx context.Context, id int64) (domain.ReservationDetail, error) {
	var out domain.ReservationDetail
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/reservas/{id}", path: reservationPath(id)}, &out)
	return out, err
}

func (c *Client) SetReservationStatus(ctx context.Context, id int64, status string) error {
	return c.send(ctx, http.MethodPut, "/api/reservas/{id}", reservationPath(id), map[string]string{"estado": status})
}

func reservationPath(id int64) string { return "/api/reservas/" + strconv.FormatInt(id, 10) }

// UploadVoucher posts the payment proof as multipart/form-data.
func (c *Client) UploadVoucher(ctx context.Context, v domain.VoucherUpload) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, v.FileName))
	ct := v.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	fw, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := fw.Write(v.Content); err != nil {
		return err
	}
	fields := [][2]string{
		{"reserva_id", strconv.FormatInt(v.ReservationID, 10)},
		{"tipo_comprobante", v.Type},
		{"monto", strconv.FormatFloat(v.Amount, 'f', -1, 64)},
		{"fecha_pago", v.PaidOn},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	_, err = c.do(ctx, call{
		method:      http.MethodPost,
		endpoint:    "/api/comprobantes",
		path:        "/api/comprobantes",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, nil)
	return err
}

// ---- users ----

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/usuarios", path: "/api/usuarios"}, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in domain.UserInput) error {
	return c.send(ctx, http.MethodPost, "/api/usuarios", "/api/usuarios", in)
}

func (c *Client) UpdateUser(ctx context.Context, id int64, in domain.UserInput) error {
	return c.send(ctx, http.MethodPut, "/api/usuarios/{id}", userPath(id), in)
}

// DeactivateUser is DELETE on the API, which flips activo off.
func (c *Client) DeactivateUser(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, "/api/usuarios/{id}", userPath(id), nil)
}

func userPath(id int64) string { return "/api/usuarios/" + strconv.FormatInt(id, 10) }

// ---- misc ----

func (c *Client) Stats(ctx context.Context, period string) (domain.Stats, error) {
	var out domain.Stats
	cl := call{method: http.MethodGet, endpoint: "/api/estadisticas", path: "/api/estadisticas"}
	if period != "" {
		cl.query = url.Values{"periodo": {period}}
	}
	_, err := c.do(ctx, cl, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) error {
	var out json.RawMessage
	_, err := c.do(ctx, call{method: http.MethodGet, endpoint: "/api/health", path: "/api/health"}, &out)
	return err
}

func (c *Client) send(ctx context.Context, method, endpoint, path string, body any) error {
	cl, err := jsonCall(method, endpoint, path, body)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, cl, nil)
	return err
}
