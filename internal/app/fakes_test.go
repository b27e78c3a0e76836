package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"paraiso_verde/internal/domain"
)

// ---- fakes ----

// fakeAPI answers from canned data and records mutations. Methods not
// overridden here panic through the nil embedded interface.
type fakeAPI struct {
	domain.HotelAPI

	mu sync.Mutex

	types     []domain.RoomType
	rooms     []domain.Room
	avail     []domain.Room
	clients   []domain.Client
	rsv       domain.Reservation
	rsvs      []domain.Reservation
	users     []domain.User
	stats     domain.Stats
	loginUser domain.User
	loginErr  error

	errs map[string]error

	calls      []string
	typeCalls  int
	roomCalls  int
	statCalls  int
	lastQuery  domain.AvailabilityQuery
	lastRsv    domain.ReservationInput
	lastUpload domain.VoucherUpload
	lastStatus string
	lastUser   domain.UserInput
}

func (f *fakeAPI) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (domain.User, domain.Credentials, error) {
	if err := f.record("Login"); err != nil {
		return domain.User{}, domain.Credentials{}, err
	}
	return f.loginUser, domain.Credentials{Cookie: "sid=1"}, f.loginErr
}

func (f *fakeAPI) Logout(ctx context.Context) error { return f.record("Logout") }

func (f *fakeAPI) Register(ctx context.Context, r domain.Registration) error {
	return f.record("Register")
}

func (f *fakeAPI) RoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	f.mu.Lock()
	f.typeCalls++
	f.mu.Unlock()
	return f.types, f.record("RoomTypes")
}

func (f *fakeAPI) Rooms(ctx context.Context) ([]domain.Room, error) {
	f.mu.Lock()
	f.roomCalls++
	f.mu.Unlock()
	return f.rooms, f.record("Rooms")
}

func (f *fakeAPI) Room(ctx context.Context, id int64) (domain.Room, error) {
	if err := f.record("Room"); err != nil {
		return domain.Room{}, err
	}
	for _, r := range append(f.rooms, f.avail...) {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Room{}, &apiErr{status: 404, msg: "Habitación no encontrada"}
}

func (f *fakeAPI) CreateRoom(ctx context.Context, in domain.RoomInput) error {
	return f.record("CreateRoom")
}

func (f *fakeAPI) UpdateRoom(ctx context.Context, id int64, in domain.RoomInput) error {
	return f.record("UpdateRoom")
}

func (f *fakeAPI) DeleteRoom(ctx context.Context, id int64) error { return f.record("DeleteRoom") }

func (f *fakeAPI) Availability(ctx context.Context, q domain.AvailabilityQuery) ([]domain.Room, error) {
	f.mu.Lock()
	f.lastQuery = q
	f.mu.Unlock()
	return f.avail, f.record("Availability")
}

func (f *fakeAPI) ClientsByUser(ctx context.Context, userID int64) ([]domain.Client, error) {
	return f.clients, f.record("ClientsByUser")
}

func (f *fakeAPI) CreateReservation(ctx context.Context, in domain.ReservationInput) (domain.Reservation, error) {
	f.lastRsv = in
	if err := f.record("CreateReservation"); err != nil {
		return domain.Reservation{}, err
	}
	return f.rsv, nil
}

func (f *fakeAPI) Reservations(ctx context.Context, status string) ([]domain.Reservation, error) {
	f.lastStatus = status
	if err := f.record("Reservations"); err != nil {
		return nil, err
	}
	var out []domain.Reservation
	for _, r := range f.rsvs {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAPI) SetReservationStatus(ctx context.Context, id int64, status string) error {
	f.lastStatus = status
	return f.record("SetReservationStatus")
}

func (f *fakeAPI) UploadVoucher(ctx context.Context, v domain.VoucherUpload) error {
	f.lastUpload = v
	return f.record("UploadVoucher")
}

func (f *fakeAPI) Users(ctx context.Context) ([]domain.User, error) {
	return f.users, f.record("Users")
}

func (f *fakeAPI) CreateUser(ctx context.Context, in domain.UserInput) error {
	f.lastUser = in
	return f.record("CreateUser")
}

func (f *fakeAPI) UpdateUser(ctx context.Context, id int64, in domain.UserInput) error {
	f.lastUser = in
	return f.record("UpdateUser")
}

func (f *fakeAPI) DeactivateUser(ctx context.Context, id int64) error {
	return f.record("DeactivateUser")
}

func (f *fakeAPI) Stats(ctx context.Context, period string) (domain.Stats, error) {
	f.mu.Lock()
	f.statCalls++
	f.mu.Unlock()
	return f.stats, f.record("Stats")
}

func (f *fakeAPI) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

// apiErr mimics the API client's error: a status and maybe the API's text.
type apiErr struct {
	status int
	msg    string
}

func (e *apiErr) Error() string {
	if e.msg == "" {
		return "HTTP error!"
	}
	return e.msg
}
func (e *apiErr) HTTPStatus() int     { return e.status }
func (e *apiErr) UserMessage() string { return e.msg }

var errNetwork = errors.New("dial tcp: connection refused")

// fakeCache round-trips through JSON like the Redis cache does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
	fail  bool
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return false, errors.New("redis down")
	}
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("redis down")
	}
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

type fakeStore struct {
	mu        sync.Mutex
	inquiries []domain.Inquiry
	audit     []domain.AuditEvent
	fail      bool
}

func (s *fakeStore) SaveInquiry(ctx context.Context, in domain.Inquiry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("db down")
	}
	in.ID = int64(len(s.inquiries) + 1)
	s.inquiries = append(s.inquiries, in)
	return in.ID, nil
}

func (s *fakeStore) ListInquiries(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 && len(s.inquiries) > limit {
		return s.inquiries[:limit], nil
	}
	return s.inquiries, nil
}

func (s *fakeStore) CountInquiries(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("db down")
	}
	return len(s.inquiries), nil
}

func (s *fakeStore) RecordAudit(ctx context.Context, ev domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("db down")
	}
	s.audit = append(s.audit, ev)
	return nil
}

func (s *fakeStore) RecentAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit, nil
}

type fakeMailer struct {
	sent []domain.Mail
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, mail domain.Mail) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail)
	return nil
}
