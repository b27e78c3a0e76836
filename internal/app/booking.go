package app

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"paraiso_verde/internal/domain"
)

const MaxGuests = 6

type BookingService struct {
	api     domain.HotelAPI
	catalog *CatalogService
	mailer  domain.Mailer
	now     func() time.Time
}

func NewBookingService(api domain.HotelAPI, catalog *CatalogService, m domain.Mailer) *BookingService {
	return &BookingService{api: api, catalog: catalog, mailer: m, now: time.Now}
}

type SearchQuery struct {
	CheckIn    string
	CheckOut   string
	Guests     int
	RoomTypeID int64
}

type SearchResult struct {
	Query  SearchQuery
	Types  []domain.RoomType
	Rooms  []domain.Room
	Notice string
}

// Normalize fills the default one-night stay and clamps guests to 1..6.
func (s *BookingService) Normalize(q SearchQuery) SearchQuery {
	if q.CheckIn == "" && q.CheckOut == "" {
		q.CheckIn, q.CheckOut = domain.DefaultStay(s.now())
	}
	if q.Guests < 1 {
		q.Guests = 1
	}
	if q.Guests > MaxGuests {
		q.Guests = MaxGuests
	}
	return q
}

// Search loads room types and availability together. An invalid stay still
// returns the types so the filter form can be redrawn.
func (s *BookingService) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	q = s.Normalize(q)
	res := SearchResult{Query: q}
	stayErr := domain.ValidateStay(q.CheckIn, q.CheckOut)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ts, err := s.catalog.RoomTypes(gctx)
		if err != nil {
			// the type dropdown is optional
			log.Warn().Err(err).Msg("room types unavailable")
			return nil
		}
		res.Types = ts
		return nil
	})
	var rooms []domain.Room
	if stayErr == nil {
		g.Go(func() error {
			rs, err := s.api.Availability(gctx, domain.AvailabilityQuery{
				CheckIn: q.CheckIn, CheckOut: q.CheckOut, RoomTypeID: q.RoomTypeID,
			})
			if err != nil {
				return wrapStep("Error al buscar habitaciones disponibles", err)
			}
			rooms = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if stayErr != nil {
		return res, stayErr
	}
	res.Rooms = FitGuests(rooms, q.Guests)
	if len(res.Rooms) == 0 {
		res.Notice = domain.MsgNoAvailability
	}
	return res, nil
}

type Offer struct {
	Room  domain.Room
	Quote domain.Quote
	Query SearchQuery
}

// Offer prices one room for the requested stay.
func (s *BookingService) Offer(ctx context.Context, roomID int64, q SearchQuery) (Offer, error) {
	q = s.Normalize(q)
	room, err := s.api.Room(ctx, roomID)
	if err != nil {
		return Offer{}, wrapStep("Error al cargar la habitación", err)
	}
	return Offer{Room: room, Quote: domain.QuoteStay(q.CheckIn, q.CheckOut, room.Rate()), Query: q}, nil
}

type Receipt struct {
	Reservation domain.Reservation
	Room        domain.Room
	Quote       domain.Quote
	MailSent    bool
}

// Book runs the booking sequence: client lookup, reservation, voucher upload.
// A failed step stops the sequence and reports that step's message; earlier
// steps are not undone.
func (s *BookingService) Book(ctx context.Context, user *domain.SessionUser, f BookingForm) (Receipt, error) {
	if user == nil || user.ID == 0 {
		return Receipt{}, domain.ErrNotLoggedIn
	}
	if err := ValidateBooking(f); err != nil {
		return Receipt{}, err
	}

	room, err := s.api.Room(ctx, f.RoomID)
	if err != nil {
		return Receipt{}, wrapStep("Error al cargar la habitación", err)
	}
	if room.MaxGuests > 0 && f.Guests > room.MaxGuests {
		return Receipt{}, &UserError{Msg: fmt.Sprintf("La habitación admite hasta %d huéspedes", room.MaxGuests)}
	}
	q := domain.QuoteStay(f.CheckIn, f.CheckOut, room.Rate())
	if q.Nights <= 0 {
		return Receipt{}, &UserError{Msg: domain.MsgBadStay}
	}

	clients, err := s.api.ClientsByUser(ctx, user.ID)
	if err != nil {
		return Receipt{}, &UserError{Msg: domain.MsgClientLookup, Err: err}
	}
	if len(clients) == 0 {
		return Receipt{}, domain.ErrNoClient
	}

	rsv, err := s.api.CreateReservation(ctx, domain.ReservationInput{
		ClientID: clients[0].ID,
		CheckIn:  f.CheckIn,
		CheckOut: f.CheckOut,
		Guests:   f.Guests,
		RoomIDs:  []int64{room.ID},
	})
	if err != nil {
		return Receipt{}, wrapStep(domain.MsgCreateBooking, err)
	}
	if rsv.ID == 0 {
		return Receipt{}, &UserError{Msg: domain.MsgCreateBooking}
	}

	if err := s.api.UploadVoucher(ctx, domain.VoucherUpload{
		ReservationID: rsv.ID,
		Type:          f.VoucherType,
		Amount:        q.Total,
		PaidOn:        f.PaidOn,
		FileName:      f.FileName,
		ContentType:   f.ContentType,
		Content:       f.File,
	}); err != nil {
		return Receipt{Reservation: rsv, Room: room, Quote: q}, &UserError{Msg: domain.MsgVoucherUpload, Err: err}
	}

	s.catalog.InvalidateRooms(ctx)
	r := Receipt{Reservation: rsv, Room: room, Quote: q}
	r.MailSent = s.acknowledge(ctx, user, r)
	return r, nil
}

// acknowledge mails the guest a summary; failures are logged only.
func (s *BookingService) acknowledge(ctx context.Context, user *domain.SessionUser, r Receipt) bool {
	if s.mailer == nil || user.Email == "" {
		return false
	}
	code := r.Reservation.Code
	if code == "" {
		code = fmt.Sprintf("#%d", r.Reservation.ID)
	}
	m := domain.Mail{
		To:      user.Email,
		Subject: "Hotel Paraíso Verde: recibimos tu reserva " + code,
		Text: fmt.Sprintf("Hola %s,\n\nRecibimos tu reserva %s (habitación %s) del %s al %s, %d noche(s), total %s.\n"+
			"Tu comprobante está en revisión; te avisaremos cuando la reserva sea confirmada.\n",
			user.FirstName, code, r.Room.Number, r.Reservation.CheckIn, r.Reservation.CheckOut, r.Quote.Nights, Money(r.Quote.Total)),
		HTML: fmt.Sprintf("<p>Hola %s,</p><p>Recibimos tu reserva <strong>%s</strong> (habitación %s) del %s al %s, "+
			"%d noche(s), total <strong>%s</strong>.</p><p>Tu comprobante está en revisión; te avisaremos cuando la reserva sea confirmada.</p>",
			html.EscapeString(user.FirstName), html.EscapeString(code), html.EscapeString(r.Room.Number),
			html.EscapeString(ShortDate(r.Reservation.CheckIn)), html.EscapeString(ShortDate(r.Reservation.CheckOut)),
			r.Quote.Nights, Money(r.Quote.Total)),
	}
	if r.Reservation.Code != "" {
		if png, err := ReservationQR(r.Reservation.Code, 256); err == nil {
			m.Attachments = append(m.Attachments, domain.Attachment{Name: "reserva-" + r.Reservation.Code + ".png", Data: png})
		}
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		log.Warn().Err(err).Int64("reservation", r.Reservation.ID).Msg("booking mail failed")
		return false
	}
	return true
}
