package domain

import "context"

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "cliente"
)

var Roles = []string{RoleAdmin, RoleStaff, RoleClient}

type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Role      string `json:"rol"`
	Active    Flag   `json:"activo"`
	CreatedAt string `json:"fecha_creacion"`
	UpdatedAt string `json:"fecha_actualizacion"`
}

func (u User) FullName() string { return joinName(u.FirstName, u.LastName) }

// UserInput is the body of POST/PUT /usuarios. Password is omitted on update
// when left blank.
type UserInput struct {
	Email     string `json:"email"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Role      string `json:"rol"`
	Active    bool   `json:"activo"`
	Password  string `json:"password,omitempty"`
}

// Credentials are what the API handed out at login; they are replayed on
// every call made on behalf of the visitor.
type Credentials struct {
	Cookie string
	Token  string
}

func (c Credentials) Empty() bool { return c.Cookie == "" && c.Token == "" }

// SessionUser is the signed-in visitor.
type SessionUser struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Role      string
	Creds     Credentials
}

func (s *SessionUser) IsStaff() bool {
	return s != nil && (s.Role == RoleStaff || s.Role == RoleAdmin)
}

func (s *SessionUser) FullName() string {
	if s == nil {
		return ""
	}
	return joinName(s.FirstName, s.LastName)
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

type credsKey struct{}

// WithCredentials attaches the visitor's upstream credentials to ctx so the
// API client can replay them.
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credsKey{}, c)
}

func CredentialsFrom(ctx context.Context) Credentials {
	c, _ := ctx.Value(credsKey{}).(Credentials)
	return c
}
