package app

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ReservationQR encodes a booking code as a PNG the front desk can scan.
func ReservationQR(code string, size int) ([]byte, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &UserError{Msg: "Código de reserva vacío"}
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode("PARAISO-VERDE:"+code, qrcode.Medium, size)
}
