package app

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"paraiso_verde/internal/domain"
)

var exportHeader = []any{
	"Código", "Cliente", "Email", "Teléfono", "Entrada", "Salida",
	"Noches", "Huéspedes", "Habitaciones", "Estado", "Total", "Creada",
}

// ExportReservations writes the filtered reservation list as an XLSX
// workbook with one sheet.
func (s *StaffService) ExportReservations(ctx context.Context, status, search string, w io.Writer) (int, error) {
	rs, err := s.Reservations(ctx, status, search)
	if err != nil {
		return 0, err
	}
	return len(rs), WriteReservationsXLSX(rs, w)
}

func WriteReservationsXLSX(rs []domain.Reservation, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reservas"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F7D4F"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "L1", bold); err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	for i, r := range rs {
		q := domain.QuoteStay(r.CheckIn, r.CheckOut, 0)
		row := []any{
			r.Code,
			joinNames(r.ClientFirstName, r.ClientLastName),
			r.ClientEmail,
			r.ClientPhone,
			dateOnly(r.CheckIn),
			dateOnly(r.CheckOut),
			q.Nights,
			r.Guests,
			r.RoomCount,
			StatusLabel(r.Status),
			r.Total.Float(),
			dateOnly(r.CreatedAt),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if n := len(rs); n > 0 {
		if err := f.SetCellStyle(sheet, "K2", fmt.Sprintf("K%d", n+1), money); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "L", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "C", 28); err != nil {
		return err
	}
	return f.Write(w)
}

func dateOnly(s string) string {
	if t, err := domain.ParseDate(s); err == nil {
		return t.Format(domain.DateLayout)
	}
	return s
}

func joinNames(first, last string) string {
	return (&domain.SessionUser{FirstName: first, LastName: last}).FullName()
}
