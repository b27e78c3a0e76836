package domain

import "errors"

// User-facing failures. The texts are shown verbatim as page messages.
var (
	ErrMissingDates  = errors.New("Por favor selecciona las fechas de entrada y salida")
	ErrInvalidStay   = errors.New("La fecha de salida debe ser posterior a la fecha de entrada")
	ErrNoVoucher     = errors.New("Por favor adjunta el comprobante de pago")
	ErrNotLoggedIn   = errors.New("Debes estar logueado para hacer una reserva")
	ErrNoClient      = errors.New("No se encontró un cliente asociado a tu usuario")
	ErrBadCredential = errors.New("Credenciales incorrectas. Por favor, intenta de nuevo.")
)

// Fallback texts for when the API gives no message of its own.
const (
	MsgConnection     = "Error de conexión. Intenta nuevamente."
	MsgNoAvailability = "No hay habitaciones disponibles para los criterios seleccionados"
	MsgBadStay        = "Las fechas seleccionadas no son válidas"
	MsgClientLookup   = "Error al obtener información del cliente"
	MsgCreateBooking  = "Error al crear la reserva"
	MsgVoucherUpload  = "Error al subir el comprobante de pago"
	MsgBooked         = "Reserva creada y comprobante subido exitosamente. Espera la confirmación de tu reserva."
)
