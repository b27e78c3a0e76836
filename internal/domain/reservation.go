package domain

const (
	ReservationPending   = "pendiente"
	ReservationConfirmed = "confirmada"
	ReservationCancelled = "cancelada"
)

var ReservationStatuses = []string{ReservationPending, ReservationConfirmed, ReservationCancelled}

// VoucherTypes are the accepted payment proof kinds.
var VoucherTypes = []string{"transferencia", "deposito", "yape", "plin", "efectivo"}

type Reservation struct {
	ID              int64  `json:"id"`
	Code            string `json:"codigo_reserva"`
	CheckIn         string `json:"fecha_entrada"`
	CheckOut        string `json:"fecha_salida"`
	Status          string `json:"estado"`
	Total           Number `json:"precio_total"`
	Guests          int    `json:"numero_huespedes"`
	CreatedAt       string `json:"fecha_creacion"`
	ClientID        int64  `json:"cliente_id"`
	ClientFirstName string `json:"cliente_nombre"`
	ClientLastName  string `json:"cliente_apellido"`
	ClientEmail     string `json:"cliente_email"`
	ClientPhone     string `json:"cliente_telefono"`
	RoomCount       int    `json:"total_habitaciones"`
}

type ReservedRoom struct {
	ID       int64  `json:"id"`
	Number   string `json:"numero"`
	Floor    int    `json:"piso"`
	TypeName string `json:"tipo_nombre"`
	UnitRate Number `json:"precio_unitario"`
	Nights   int    `json:"noches"`
	Subtotal Number `json:"subtotal"`
}

type PaymentVoucher struct {
	ID        int64  `json:"id"`
	Method    string `json:"metodo_pago"`
	Amount    Number `json:"monto"`
	Status    string `json:"estado"`
	FilePath  string `json:"ruta_archivo"`
	CreatedAt string `json:"fecha_creacion"`
}

type ReservationDetail struct {
	Reservation
	Rooms    []ReservedRoom   `json:"habitaciones"`
	Vouchers []PaymentVoucher `json:"comprobantes"`
}

// ReservationInput is the body of POST /reservas.
type ReservationInput struct {
	ClientID int64   `json:"cliente_id"`
	CheckIn  string  `json:"fecha_entrada"`
	CheckOut string  `json:"fecha_salida"`
	Guests   int     `json:"numero_huespedes"`
	RoomIDs  []int64 `json:"habitaciones"`
}

// VoucherUpload is sent as multipart/form-data to POST /comprobantes.
type VoucherUpload struct {
	ReservationID int64
	Type          string
	Amount        float64
	PaidOn        string
	FileName      string
	ContentType   string
	Content       []byte
}
