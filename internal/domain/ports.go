package domain

import (
	"context"
	"time"
)

// HotelAPI is the remote system of record. Calls made on behalf of a visitor
// read their credentials from ctx (see WithCredentials).
type HotelAPI interface {
	Login(ctx context.Context, email, password string) (User, Credentials, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, r Registration) error

	RoomTypes(ctx context.Context) ([]RoomType, error)
	Rooms(ctx context.Context) ([]Room, error)
	Room(ctx context.Context, id int64) (Room, error)
	CreateRoom(ctx context.Context, in RoomInput) error
	UpdateRoom(ctx context.Context, id int64, in RoomInput) error
	DeleteRoom(ctx context.Context, id int64) error
	Availability(ctx context.Context, q AvailabilityQuery) ([]Room, error)

	ClientsByUser(ctx context.Context, userID int64) ([]Client, error)
	CreateReservation(ctx context.Context, in ReservationInput) (Reservation, error)
	Reservations(ctx context.Context, status string) ([]Reservation, error)
	Reservation(ctx context.Context, id int64) (ReservationDetail, error)
	SetReservationStatus(ctx context.Context, id int64, status string) error
	UploadVoucher(ctx context.Context, v VoucherUpload) error

	Users(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, in UserInput) error
	UpdateUser(ctx context.Context, id int64, in UserInput) error
	DeactivateUser(ctx context.Context, id int64) error

	Stats(ctx context.Context, period string) (Stats, error)
	Health(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
}

// Store keeps what the front-end owns locally: contact inquiries and the
// staff audit trail.
type Store interface {
	SaveInquiry(ctx context.Context, in Inquiry) (int64, error)
	ListInquiries(ctx context.Context, limit int) ([]Inquiry, error)
	CountInquiries(ctx context.Context) (int, error)
	RecordAudit(ctx context.Context, ev AuditEvent) error
	RecentAudit(ctx context.Context, limit int) ([]AuditEvent, error)
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type Mail struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Attachment struct {
	Name string
	Data []byte
}

type Inquiry struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	CreatedAt time.Time
}

type AuditEvent struct {
	ID      string
	ActorID int64
	Actor   string
	Action  string
	Target  string
	Detail  string
	At      time.Time
}
