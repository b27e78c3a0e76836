package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/adapters/observability"
	"paraiso_verde/internal/app"
	"paraiso_verde/internal/domain"
)

func searchQuery(r *http.Request) app.SearchQuery {
	return app.SearchQuery{
		CheckIn:    strings.TrimSpace(r.FormValue("checkin")),
		CheckOut:   strings.TrimSpace(r.FormValue("checkout")),
		Guests:     formInt(r, "huespedes"),
		RoomTypeID: formInt64(r, "tipo"),
	}
}

// stayParams carries the search over to the room page and back.
func stayParams(q app.SearchQuery) string {
	v := url.Values{}
	v.Set("checkin", q.CheckIn)
	v.Set("checkout", q.CheckOut)
	v.Set("huespedes", strconv.Itoa(q.Guests))
	if q.RoomTypeID > 0 {
		v.Set("tipo", strconv.FormatInt(q.RoomTypeID, 10))
	}
	return v.Encode()
}

type searchView struct {
	app.SearchResult
	Params    string
	MaxGuests int
}

func (h *Handlers) bookingSearch(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Reservar", Nav: "booking"}
	res, err := h.Booking.Search(r.Context(), searchQuery(r))
	if err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		p.Flash.Error = app.Message(err, "Error al buscar habitaciones disponibles")
	} else if res.Notice != "" {
		p.Flash.Error = res.Notice
	}
	p.Data = searchView{SearchResult: res, Params: stayParams(res.Query), MaxGuests: app.MaxGuests}
	h.rd.render(w, r, http.StatusOK, "booking", p)
}

type offerView struct {
	app.Offer
	Params       string
	VoucherTypes []string
	VoucherType  string
	PaidOn       string
	MaxGuests    int
	Partial      *domain.Reservation
}

func (h *Handlers) offer(w http.ResponseWriter, r *http.Request) (offerView, bool) {
	id, ok := pathID(r)
	if !ok {
		h.notFound(w, r)
		return offerView{}, false
	}
	o, err := h.Booking.Offer(r.Context(), id, searchQuery(r))
	if err != nil {
		if app.StatusOf(err) == http.StatusNotFound {
			h.notFound(w, r)
			return offerView{}, false
		}
		if h.sessionExpired(w, r, err) {
			return offerView{}, false
		}
		redirectFlash(w, r, "/reservar", "error", app.Message(err, "Error al cargar la habitación"))
		return offerView{}, false
	}
	return offerView{
		Offer:        o,
		Params:       stayParams(o.Query),
		VoucherTypes: domain.VoucherTypes,
		PaidOn:       time.Now().Format(domain.DateLayout),
		MaxGuests:    app.MaxGuests,
	}, true
}

func (h *Handlers) bookingForm(w http.ResponseWriter, r *http.Request) {
	v, ok := h.offer(w, r)
	if !ok {
		return
	}
	h.rd.render(w, r, http.StatusOK, "booking_room", page{Title: "Confirmar Reserva", Nav: "booking", Data: v})
}

func (h *Handlers) bookingSubmit(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		back := r.URL.Path + "?" + stayParams(searchQuery(r))
		redirectFlash(w, r, "/login?next="+url.QueryEscape(back), "error", domain.ErrNotLoggedIn.Error())
		return
	}
	if err := r.ParseMultipartForm(maxBody); err != nil {
		var tooBig *http.MaxBytesError
		msg := "No pudimos leer el formulario. Intenta nuevamente."
		if errors.As(err, &tooBig) {
			msg = "El comprobante es demasiado grande."
		}
		redirectFlash(w, r, r.URL.Path+"?"+stayParams(searchQuery(r)), "error", msg)
		return
	}

	v, ok := h.offer(w, r)
	if !ok {
		return
	}
	f := app.BookingForm{
		RoomID:      v.Room.ID,
		CheckIn:     v.Query.CheckIn,
		CheckOut:    v.Query.CheckOut,
		Guests:      v.Query.Guests,
		VoucherType: r.FormValue("tipo_comprobante"),
		PaidOn:      strings.TrimSpace(r.FormValue("fecha_pago")),
	}
	if file, hdr, err := r.FormFile("comprobante"); err == nil {
		f.File, err = io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			log.Warn().Err(err).Msg("read voucher")
			f.File = nil
		}
		f.FileName = hdr.Filename
		f.ContentType = hdr.Header.Get("Content-Type")
		if f.ContentType == "" && len(f.File) > 0 {
			f.ContentType = http.DetectContentType(f.File)
		}
	}

	rc, err := h.Booking.Book(r.Context(), user, f)
	if err != nil {
		if h.sessionExpired(w, r, err) {
			return
		}
		outcome := "rejected"
		if rc.Reservation.ID != 0 {
			outcome = "partial"
			v.Partial = &rc.Reservation
		}
		observability.ObserveBooking(outcome)
		log.Warn().Err(err).Int64("user", user.ID).Int64("room", f.RoomID).Msg("booking failed")

		v.VoucherType, v.PaidOn = f.VoucherType, f.PaidOn
		status := http.StatusUnprocessableEntity
		if app.StatusOf(err) >= 500 {
			status = http.StatusBadGateway
		}
		h.rd.render(w, r, status, "booking_room", page{
			Title: "Confirmar Reserva", Nav: "booking", Data: v,
			Flash: flash{Error: app.Message(err, domain.MsgCreateBooking)},
		})
		return
	}

	observability.ObserveBooking("created")
	log.Info().Int64("reservation", rc.Reservation.ID).Int64("user", user.ID).
		Float64("total", rc.Quote.Total).Bool("mail", rc.MailSent).Msg("booking created")

	code := rc.Reservation.Code
	if code == "" {
		code = strconv.FormatInt(rc.Reservation.ID, 10)
	}
	redirectFlash(w, r, "/reservar/codigo/"+url.PathEscape(code), "ok", domain.MsgBooked)
}

func (h *Handlers) bookingDone(w http.ResponseWriter, r *http.Request) {
	h.rd.render(w, r, http.StatusOK, "booking_done", page{
		Title: "Reserva registrada",
		Nav:   "booking",
		Data:  chi.URLParam(r, "codigo"),
	})
}

func (h *Handlers) bookingQR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "codigo")
	if code == "" || len(code) > 64 {
		writeProblem(w, http.StatusBadRequest, "Invalid code", "reservation code is required")
		return
	}
	png, err := app.ReservationQR(code, 256)
	if err != nil {
		log.Error().Err(err).Str("code", code).Msg("qr encode")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("Content-Length", fmt.Sprint(len(png)))
	_, _ = w.Write(png)
}
