package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"paraiso_verde/internal/domain"
)

// StaffService backs the dashboard. Every mutation leaves an audit event in
// the local store; audit failures never fail the mutation.
type StaffService struct {
	api     domain.HotelAPI
	catalog *CatalogService
	store   domain.Store
	now     func() time.Time
}

func NewStaffService(api domain.HotelAPI, catalog *CatalogService, store domain.Store) *StaffService {
	return &StaffService{api: api, catalog: catalog, store: store, now: time.Now}
}

type Overview struct {
	Stats       domain.Stats
	DailyIncome float64
	Occupancy   float64
	Recent      []domain.AuditEvent
	Inquiries   int
}

func (s *StaffService) Overview(ctx context.Context) (Overview, error) {
	st, err := s.catalog.Stats(ctx, "mes")
	if err != nil {
		return Overview{}, wrapStep("Error al cargar estadísticas", err)
	}
	ov := Overview{Stats: st, DailyIncome: st.DailyIncome(), Occupancy: st.OccupancyRate()}
	if s.store != nil {
		if evs, err := s.store.RecentAudit(ctx, 8); err != nil {
			log.Warn().Err(err).Msg("audit read failed")
		} else {
			ov.Recent = evs
		}
		if n, err := s.store.CountInquiries(ctx); err != nil {
			log.Warn().Err(err).Msg("inquiry count failed")
		} else {
			ov.Inquiries = n
		}
	}
	return ov, nil
}

/********** rooms **********/

type RoomsPage struct {
	Total  int
	Rooms  []domain.Room
	Types  []domain.RoomType
	Floors []int
}

// Rooms reads the live list (not the public cache) next to the type list.
func (s *StaffService) Rooms(ctx context.Context, f RoomFilter) (RoomsPage, error) {
	var page RoomsPage
	var all []domain.Room
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := s.api.Rooms(gctx)
		all = rs
		return err
	})
	g.Go(func() error {
		ts, err := s.catalog.RoomTypes(gctx)
		page.Types = ts
		return err
	})
	if err := g.Wait(); err != nil {
		return RoomsPage{}, wrapStep("Error al cargar habitaciones", err)
	}
	page.Total = len(all)
	page.Floors = Floors(all)
	page.Rooms = FilterRooms(all, f)
	return page, nil
}

func (s *StaffService) Room(ctx context.Context, id int64) (domain.Room, error) {
	r, err := s.api.Room(ctx, id)
	if err != nil {
		return domain.Room{}, wrapStep("Error al cargar la habitación", err)
	}
	return r, nil
}

func (s *StaffService) CreateRoom(ctx context.Context, actor *domain.SessionUser, f RoomForm) error {
	if err := Validate(f); err != nil {
		return err
	}
	if err := s.api.CreateRoom(ctx, f.Input()); err != nil {
		return wrapStep("Error al guardar", err)
	}
	s.catalog.InvalidateRooms(ctx)
	s.audit(ctx, actor, "room.create", "habitación "+f.Number, "")
	return nil
}

func (s *StaffService) UpdateRoom(ctx context.Context, actor *domain.SessionUser, id int64, f RoomForm) error {
	if err := Validate(f); err != nil {
		return err
	}
	if err := s.api.UpdateRoom(ctx, id, f.Input()); err != nil {
		return wrapStep("Error al guardar", err)
	}
	s.catalog.InvalidateRooms(ctx)
	s.audit(ctx, actor, "room.update", fmt.Sprintf("habitación %d", id), "estado="+f.Status)
	return nil
}

func (s *StaffService) DeleteRoom(ctx context.Context, actor *domain.SessionUser, id int64) error {
	if err := s.api.DeleteRoom(ctx, id); err != nil {
		return wrapStep("Error al eliminar", err)
	}
	s.catalog.InvalidateRooms(ctx)
	s.audit(ctx, actor, "room.delete", fmt.Sprintf("habitación %d", id), "")
	return nil
}

/********** reservations **********/

// Reservations filters by status on the API side and by search term here.
// An empty status lists every reservation.
func (s *StaffService) Reservations(ctx context.Context, status, search string) ([]domain.Reservation, error) {
	rs, err := s.api.Reservations(ctx, status)
	if err != nil {
		return nil, wrapStep("Error al cargar las reservas", err)
	}
	return FilterReservations(rs, search), nil
}

func (s *StaffService) Reservation(ctx context.Context, id int64) (domain.ReservationDetail, error) {
	d, err := s.api.Reservation(ctx, id)
	if err != nil {
		return domain.ReservationDetail{}, wrapStep("Error al obtener detalles de la reserva", err)
	}
	return d, nil
}

func (s *StaffService) ConfirmReservation(ctx context.Context, actor *domain.SessionUser, id int64) error {
	if err := s.api.SetReservationStatus(ctx, id, domain.ReservationConfirmed); err != nil {
		return wrapStep("Error al confirmar reserva", err)
	}
	s.catalog.InvalidateRooms(ctx)
	s.audit(ctx, actor, "reservation.confirm", fmt.Sprintf("reserva %d", id), "")
	return nil
}

func (s *StaffService) RejectReservation(ctx context.Context, actor *domain.SessionUser, id int64) error {
	if err := s.api.SetReservationStatus(ctx, id, domain.ReservationCancelled); err != nil {
		return wrapStep("Error al rechazar reserva", err)
	}
	s.catalog.InvalidateRooms(ctx)
	s.audit(ctx, actor, "reservation.reject", fmt.Sprintf("reserva %d", id), "")
	return nil
}

/********** users **********/

type UsersPage struct {
	Total int
	Users []domain.User
}

func (s *StaffService) Users(ctx context.Context, f UserFilter) (UsersPage, error) {
	us, err := s.api.Users(ctx)
	if err != nil {
		return UsersPage{}, wrapStep("Error al cargar usuarios", err)
	}
	return UsersPage{Total: len(us), Users: FilterUsers(us, f)}, nil
}

func (s *StaffService) CreateUser(ctx context.Context, actor *domain.SessionUser, f UserForm) error {
	if err := ValidateUser(f, true); err != nil {
		return err
	}
	if err := s.api.CreateUser(ctx, f.Input()); err != nil {
		return wrapStep("Error al procesar solicitud", err)
	}
	s.audit(ctx, actor, "user.create", f.Email, "rol="+f.Role)
	return nil
}

func (s *StaffService) UpdateUser(ctx context.Context, actor *domain.SessionUser, id int64, f UserForm) error {
	if err := ValidateUser(f, false); err != nil {
		return err
	}
	if err := s.api.UpdateUser(ctx, id, f.Input()); err != nil {
		return wrapStep("Error al procesar solicitud", err)
	}
	s.audit(ctx, actor, "user.update", fmt.Sprintf("usuario %d", id), "rol="+f.Role)
	return nil
}

func (s *StaffService) DeactivateUser(ctx context.Context, actor *domain.SessionUser, id int64) error {
	if actor != nil && actor.ID == id {
		return &UserError{Msg: "No puedes desactivar tu propio usuario"}
	}
	if err := s.api.DeactivateUser(ctx, id); err != nil {
		return wrapStep("Error al desactivar usuario", err)
	}
	s.audit(ctx, actor, "user.deactivate", fmt.Sprintf("usuario %d", id), "")
	return nil
}

/********** inbox **********/

func (s *StaffService) Inquiries(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListInquiries(ctx, limit)
}

func (s *StaffService) audit(ctx context.Context, actor *domain.SessionUser, action, target, detail string) {
	ev := domain.AuditEvent{
		ID:     uuid.NewString(),
		Action: action,
		Target: target,
		Detail: detail,
		At:     s.now().UTC(),
	}
	if actor != nil {
		ev.ActorID = actor.ID
		ev.Actor = actor.Email
	}
	log.Info().Str("action", action).Str("target", target).Int64("actor", ev.ActorID).Msg("staff_action")
	if s.store == nil {
		return
	}
	if err := s.store.RecordAudit(ctx, ev); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}
