package domain

import "math"

type Stats struct {
	Reservations struct {
		Total     int    `json:"total_reservas"`
		Confirmed int    `json:"reservas_confirmadas"`
		Pending   int    `json:"reservas_pendientes"`
		Cancelled int    `json:"reservas_canceladas"`
		Estimated Number `json:"ingresos_estimados"`
	} `json:"reservas"`
	Rooms struct {
		Total       int `json:"total_habitaciones"`
		Free        int `json:"habitaciones_disponibles"`
		Occupied    int `json:"habitaciones_ocupadas"`
		Maintenance int `json:"habitaciones_mantenimiento"`
	} `json:"habitaciones"`
	Invoices struct {
		Total    int    `json:"total_facturas"`
		Active   int    `json:"facturas_activas"`
		Voided   int    `json:"facturas_anuladas"`
		Invoiced Number `json:"ingresos_facturados"`
	} `json:"facturas"`
	Clients struct {
		Unique       int `json:"clientes_unicos"`
		Reservations int `json:"total_reservas_clientes"`
	} `json:"clientes"`
}

// DailyIncome is the rough per-day figure shown on the dashboard: invoiced
// income for the month spread over 30 days.
func (s Stats) DailyIncome() float64 {
	return math.Round(s.Invoices.Invoiced.Float() / 30)
}

// OccupancyRate is occupied rooms over total rooms, in percent.
func (s Stats) OccupancyRate() float64 {
	if s.Rooms.Total <= 0 {
		return 0
	}
	return math.Round(float64(s.Rooms.Occupied) * 100 / float64(s.Rooms.Total))
}
