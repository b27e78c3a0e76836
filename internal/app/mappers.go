package app

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"paraiso_verde/internal/domain"
)

/********** room imagery **********/

const imgBase = "https://res.cloudinary.com/dqwztjdcz/image/upload/"

var roomImages = []struct {
	keys []string
	url  string
}{
	{[]string{"estándar", "estandar"}, imgBase + "v1753089234/descarga_18_fvcaxx.jpg"},
	{[]string{"doble superior"}, imgBase + "v1753090132/descarga_19_rb547y.jpg"},
	{[]string{"familiar"}, imgBase + "v1753090210/Habitaci%C3%B3n_Familiar_con_cama_matrimonial_camarote_lh7erd.jpg"},
	{[]string{"presidencial"}, imgBase + "v1753090640/ChatGPT_Image_21_jul_2025_04_37_12_wu6psg.png"},
	{[]string{"premium"}, imgBase + "v1753090717/descarga_20_ovmb2q.jpg"},
}

// RoomImage picks the photo for a room type by name; unknown types get the
// standard room photo.
func RoomImage(typeName string) string {
	n := strings.ToLower(typeName)
	for _, ri := range roomImages {
		for _, k := range ri.keys {
			if strings.Contains(n, k) {
				return ri.url
			}
		}
	}
	return roomImages[0].url
}

/********** labels **********/

var statusLabels = map[string]string{
	domain.RoomFree:             "Disponible",
	domain.RoomOccupied:         "Ocupada",
	domain.RoomHeld:             "Separada",
	domain.RoomMaintenance:      "Mantenimiento",
	domain.ReservationPending:   "Pendiente",
	domain.ReservationConfirmed: "Confirmada",
	domain.ReservationCancelled: "Cancelada",
}

func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

// StatusTone maps a status to the badge colour class used by the stylesheet.
func StatusTone(s string) string {
	switch s {
	case domain.RoomFree, domain.ReservationConfirmed:
		return "ok"
	case domain.RoomOccupied, domain.ReservationCancelled:
		return "bad"
	case domain.RoomHeld, domain.ReservationPending:
		return "warn"
	}
	return "muted"
}

var roleLabels = map[string]string{
	domain.RoleAdmin:  "Administrador",
	domain.RoleStaff:  "Personal",
	domain.RoleClient: "Cliente",
}

func RoleLabel(r string) string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return r
}

/********** formatting **********/

var printer = message.NewPrinter(language.LatinAmericanSpanish)

// Money renders an amount in dollars with two decimals and grouping.
func Money(v float64) string {
	if v < 0 {
		return "-$" + printer.Sprintf("%.2f", -v)
	}
	return "$" + printer.Sprintf("%.2f", v)
}

var months = [...]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"}

// ShortDate renders an API date ("2025-03-01" or an ISO timestamp) as
// "01 mar 2025". Unparseable input is returned unchanged.
func ShortDate(s string) string {
	t, err := domain.ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format("02") + " " + months[t.Month()-1] + " " + t.Format("2006")
}

func Stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02/01/2006 15:04")
}

// Initials for avatar bubbles: "Ana Ruiz" -> "AR".
func Initials(first, last string) string {
	var b strings.Builder
	for _, s := range []string{first, last} {
		if r := []rune(strings.TrimSpace(s)); len(r) > 0 {
			b.WriteString(strings.ToUpper(string(r[0])))
		}
	}
	return b.String()
}
