package domain

// Room statuses as stored by the API.
const (
	RoomFree        = "libre"
	RoomOccupied    = "ocupada"
	RoomHeld        = "separada"
	RoomMaintenance = "mantenimiento"
)

var RoomStatuses = []string{RoomFree, RoomOccupied, RoomHeld, RoomMaintenance}

type RoomType struct {
	ID          int64      `json:"id"`
	Name        string     `json:"nombre"`
	Description string     `json:"descripcion"`
	MaxGuests   int        `json:"capacidad_maxima"`
	BaseRate    Number     `json:"precio_base"`
	Amenities   StringList `json:"servicios"`
}

type Room struct {
	ID              int64      `json:"id"`
	Number          string     `json:"numero"`
	Floor           int        `json:"piso"`
	Status          string     `json:"estado"`
	BaseRate        Number     `json:"precio_base"`
	NightRate       Number     `json:"precio_noche"`
	TypeID          int64      `json:"tipo_id"`
	TypeName        string     `json:"tipo_nombre"`
	TypeDescription string     `json:"tipo_descripcion"`
	MaxGuests       int        `json:"capacidad_maxima"`
	Amenities       StringList `json:"servicios"`
	Notes           *string    `json:"observaciones"`
	CreatedAt       string     `json:"fecha_creacion"`
	UpdatedAt       string     `json:"fecha_actualizacion"`
}

// Rate is the nightly price; the public listing names it precio_noche.
func (r Room) Rate() float64 {
	if r.BaseRate > 0 {
		return r.BaseRate.Float()
	}
	return r.NightRate.Float()
}

// RoomInput is the body of POST/PUT /habitaciones.
type RoomInput struct {
	Number string  `json:"numero"`
	Floor  int     `json:"piso"`
	TypeID int64   `json:"tipo_habitacion_id"`
	Status string  `json:"estado"`
	Notes  *string `json:"observaciones"`
}

type AvailabilityQuery struct {
	CheckIn    string
	CheckOut   string
	RoomTypeID int64
}

// Client is the guest profile linked to a user account.
type Client struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"usuario_id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Email     string `json:"email"`
	Phone     string `json:"telefono"`
}

// Registration is the body of POST /clientes.
type Registration struct {
	FirstName    string `json:"nombre"`
	LastName     string `json:"apellido"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"telefono,omitempty"`
	Document     string `json:"documento_identidad,omitempty"`
	DocumentType string `json:"tipo_documento,omitempty"`
	BirthDate    string `json:"fecha_nacimiento,omitempty"`
}
