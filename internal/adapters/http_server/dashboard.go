package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/app"
	"paraiso_verde/internal/domain"
)

// staffFail shows a dashboard error on the page at back, or ends the
// session when the API says the credentials are gone.
func (h *Handlers) staffFail(w http.ResponseWriter, r *http.Request, back string, err error, fallback string) {
	if h.sessionExpired(w, r, err) {
		return
	}
	log.Warn().Err(err).Str("path", r.URL.Path).Msg("staff action failed")
	redirectFlash(w, r, back, "error", app.Message(err, fallback))
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Panel de Control", Nav: "staff-home"}
	ov, err := h.Staff.Overview(r.Context())
	if err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		p.Flash.Error = app.Message(err, "Error al cargar estadísticas")
	}
	p.Data = ov
	h.rd.render(w, r, http.StatusOK, "dash_home", p)
}

/********** rooms **********/

type staffRoomsView struct {
	app.RoomsPage
	Filter   app.RoomFilter
	Statuses []string
}

func (h *Handlers) staffRooms(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := app.RoomFilter{
		Search: q.Get("q"),
		Status: q.Get("estado"),
		TypeID: formInt64(r, "tipo"),
		Floor:  formInt(r, "piso"),
	}
	p := page{Title: "Habitaciones", Nav: "staff-rooms"}
	rp, err := h.Staff.Rooms(r.Context(), f)
	if err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		p.Flash.Error = app.Message(err, "Error al cargar habitaciones")
	}
	p.Data = staffRoomsView{RoomsPage: rp, Filter: f, Statuses: domain.RoomStatuses}
	h.rd.render(w, r, http.StatusOK, "dash_rooms", p)
}

type roomFormView struct {
	ID       int64
	Form     app.RoomForm
	Types    []domain.RoomType
	Statuses []string
}

func (h *Handlers) renderRoomForm(w http.ResponseWriter, r *http.Request, status int, v roomFormView, errMsg string) {
	if v.Types == nil {
		ts, err := h.Catalog.RoomTypes(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("room form: types")
		}
		v.Types = ts
	}
	v.Statuses = domain.RoomStatuses
	title := "Nueva Habitación"
	if v.ID != 0 {
		title = "Editar Habitación"
	}
	h.rd.render(w, r, status, "dash_room_form", page{Title: title, Nav: "staff-rooms", Data: v, Flash: flash{Error: errMsg}})
}

func roomForm(r *http.Request) app.RoomForm {
	return app.RoomForm{
		Number: strings.TrimSpace(r.FormValue("numero")),
		Floor:  formInt(r, "piso"),
		TypeID: formInt64(r, "tipo_habitacion_id"),
		Status: r.FormValue("estado"),
		Notes:  r.FormValue("observaciones"),
	}
}

func (h *Handlers) staffRoomNew(w http.ResponseWriter, r *http.Request) {
	h.renderRoomForm(w, r, http.StatusOK, roomFormView{Form: app.RoomForm{Floor: 1, Status: domain.RoomFree}}, "")
}

func (h *Handlers) staffRoomEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	room, err := h.Staff.Room(r.Context(), id)
	if err != nil {
		h.staffFail(w, r, "/dashboard/habitaciones", err, "Error al cargar la habitación")
		return
	}
	f := app.RoomForm{Number: room.Number, Floor: room.Floor, TypeID: room.TypeID, Status: room.Status}
	if room.Notes != nil {
		f.Notes = *room.Notes
	}
	h.renderRoomForm(w, r, http.StatusOK, roomFormView{ID: id, Form: f}, "")
}

func (h *Handlers) staffRoomCreate(w http.ResponseWriter, r *http.Request) {
	f := roomForm(r)
	if err := h.Staff.CreateRoom(r.Context(), CurrentUser(r.Context()), f); err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		h.renderRoomForm(w, r, http.StatusUnprocessableEntity, roomFormView{Form: f}, app.Message(err, "Error al guardar"))
		return
	}
	redirectFlash(w, r, "/dashboard/habitaciones", "ok", "Habitación creada exitosamente")
}

func (h *Handlers) staffRoomUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	f := roomForm(r)
	if err := h.Staff.UpdateRoom(r.Context(), CurrentUser(r.Context()), id, f); err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		h.renderRoomForm(w, r, http.StatusUnprocessableEntity, roomFormView{ID: id, Form: f}, app.Message(err, "Error al guardar"))
		return
	}
	redirectFlash(w, r, "/dashboard/habitaciones", "ok", "Habitación actualizada exitosamente")
}

func (h *Handlers) staffRoomDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.Staff.DeleteRoom(r.Context(), CurrentUser(r.Context()), id); err != nil {
		h.staffFail(w, r, "/dashboard/habitaciones", err, "Error al eliminar")
		return
	}
	redirectFlash(w, r, "/dashboard/habitaciones", "ok", "Habitación eliminada exitosamente")
}

/********** reservations **********/

// reservationStatus reads ?estado=, defaulting to pending. "todas" lists all.
func reservationStatus(r *http.Request) (param, api string) {
	q := r.URL.Query()
	if !q.Has("estado") {
		return domain.ReservationPending, domain.ReservationPending
	}
	switch s := q.Get("estado"); s {
	case domain.ReservationPending, domain.ReservationConfirmed, domain.ReservationCancelled:
		return s, s
	}
	return "todas", ""
}

type staffReservationsView struct {
	Reservations []domain.Reservation
	Status       string
	Search       string
	Statuses     []string
}

func (h *Handlers) staffReservations(w http.ResponseWriter, r *http.Request) {
	param, status := reservationStatus(r)
	search := r.URL.Query().Get("q")

	p := page{Title: "Reservas", Nav: "staff-reservations"}
	rs, err := h.Staff.Reservations(r.Context(), status, search)
	if err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		p.Flash.Error = app.Message(err, "Error al cargar las reservas")
	}
	p.Data = staffReservationsView{Reservations: rs, Status: param, Search: search, Statuses: domain.ReservationStatuses}
	h.rd.render(w, r, http.StatusOK, "dash_reservations", p)
}

func (h *Handlers) staffReservationsExport(w http.ResponseWriter, r *http.Request) {
	param, status := reservationStatus(r)
	var buf bytes.Buffer
	n, err := h.Staff.ExportReservations(r.Context(), status, r.URL.Query().Get("q"), &buf)
	if err != nil {
		h.staffFail(w, r, "/dashboard/reservas?estado="+param, err, "Error al exportar las reservas")
		return
	}
	name := fmt.Sprintf("reservas-%s-%s.xlsx", param, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Row-Count", strconv.Itoa(n))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handlers) staffReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	d, err := h.Staff.Reservation(r.Context(), id)
	if err != nil {
		if app.StatusOf(err) == http.StatusNotFound {
			h.notFound(w, r)
			return
		}
		h.staffFail(w, r, "/dashboard/reservas", err, "Error al obtener detalles de la reserva")
		return
	}
	h.rd.render(w, r, http.StatusOK, "dash_reservation", page{Title: "Reserva " + d.Code, Nav: "staff-reservations", Data: d})
}

// backTo returns the list the staff member came from, when it is ours.
func backTo(r *http.Request, fallback string) string {
	return safeNext(r.FormValue("back"), fallback)
}

func (h *Handlers) staffReservationConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	back := backTo(r, "/dashboard/reservas")
	if err := h.Staff.ConfirmReservation(r.Context(), CurrentUser(r.Context()), id); err != nil {
		h.staffFail(w, r, back, err, "Error al confirmar reserva")
		return
	}
	redirectFlash(w, r, back, "ok", "Reserva confirmada exitosamente")
}

func (h *Handlers) staffReservationReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	back := backTo(r, "/dashboard/reservas")
	if err := h.Staff.RejectReservation(r.Context(), CurrentUser(r.Context()), id); err != nil {
		h.staffFail(w, r, back, err, "Error al rechazar reserva")
		return
	}
	redirectFlash(w, r, back, "ok", "Reserva rechazada exitosamente")
}

/********** users **********/

type staffUsersView struct {
	app.UsersPage
	Filter app.UserFilter
}

func (h *Handlers) staffUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := app.UserFilter{Search: q.Get("q"), Role: q.Get("rol"), Active: q.Get("activo")}
	p := page{Title: "Usuarios", Nav: "staff-users"}
	up, err := h.Staff.Users(r.Context(), f)
	if err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		p.Flash.Error = app.Message(err, "Error al cargar usuarios")
	}
	p.Data = staffUsersView{UsersPage: up, Filter: f}
	h.rd.render(w, r, http.StatusOK, "dash_users", p)
}

type userFormView struct {
	ID   int64
	Form app.UserForm
}

func userForm(r *http.Request) app.UserForm {
	return app.UserForm{
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("nombre")),
		LastName:  strings.TrimSpace(r.FormValue("apellido")),
		Role:      r.FormValue("rol"),
		Active:    r.FormValue("activo") != "",
		Password:  r.FormValue("password"),
	}
}

func (h *Handlers) renderUserForm(w http.ResponseWriter, r *http.Request, status int, v userFormView, errMsg string) {
	v.Form.Password = ""
	title := "Nuevo Usuario"
	if v.ID != 0 {
		title = "Editar Usuario"
	}
	h.rd.render(w, r, status, "dash_user_form", page{Title: title, Nav: "staff-users", Data: v, Flash: flash{Error: errMsg}})
}

func (h *Handlers) staffUserNew(w http.ResponseWriter, r *http.Request) {
	h.renderUserForm(w, r, http.StatusOK, userFormView{Form: app.UserForm{Role: domain.RoleStaff, Active: true}}, "")
}

// staffUserEdit prefills from the list; the API has no single-user read.
func (h *Handlers) staffUserEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	up, err := h.Staff.Users(r.Context(), app.UserFilter{})
	if err != nil {
		h.staffFail(w, r, "/dashboard/usuarios", err, "Error al cargar usuarios")
		return
	}
	for _, u := range up.Users {
		if u.ID == id {
			h.renderUserForm(w, r, http.StatusOK, userFormView{ID: id, Form: app.UserForm{
				Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role, Active: bool(u.Active),
			}}, "")
			return
		}
	}
	h.notFound(w, r)
}

func (h *Handlers) staffUserCreate(w http.ResponseWriter, r *http.Request) {
	f := userForm(r)
	if err := h.Staff.CreateUser(r.Context(), CurrentUser(r.Context()), f); err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		h.renderUserForm(w, r, http.StatusUnprocessableEntity, userFormView{Form: f}, app.Message(err, "Error al procesar solicitud"))
		return
	}
	redirectFlash(w, r, "/dashboard/usuarios", "ok", "Usuario creado exitosamente")
}

func (h *Handlers) staffUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	f := userForm(r)
	if err := h.Staff.UpdateUser(r.Context(), CurrentUser(r.Context()), id, f); err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		h.renderUserForm(w, r, http.StatusUnprocessableEntity, userFormView{ID: id, Form: f}, app.Message(err, "Error al procesar solicitud"))
		return
	}
	redirectFlash(w, r, "/dashboard/usuarios", "ok", "Usuario actualizado exitosamente")
}

func (h *Handlers) staffUserDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.Staff.DeactivateUser(r.Context(), CurrentUser(r.Context()), id); err != nil {
		h.staffFail(w, r, "/dashboard/usuarios", err, "Error al desactivar usuario")
		return
	}
	redirectFlash(w, r, "/dashboard/usuarios", "ok", "Usuario desactivado exitosamente")
}

/********** inbox **********/

func (h *Handlers) staffInbox(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Mensajes", Nav: "staff-inbox"}
	inq, err := h.Staff.Inquiries(r.Context(), 200)
	if err != nil {
		log.Error().Err(err).Msg("inbox read")
		p.Flash.Error = "No se pudieron cargar los mensajes"
	}
	p.Data = inq
	h.rd.render(w, r, http.StatusOK, "dash_inbox", p)
}
