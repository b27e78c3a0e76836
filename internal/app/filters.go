package app

import (
	"sort"
	"strings"

	"paraiso_verde/internal/domain"
)

// Filters only ever narrow: each returns a subset of its input in the same
// order. Zero-valued criteria match everything.

type RoomFilter struct {
	Search string
	Status string
	TypeID int64
	Floor  int
}

func FilterRooms(rooms []domain.Room, f RoomFilter) []domain.Room {
	q := fold(f.Search)
	out := make([]domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if q != "" && !strings.Contains(fold(r.Number), q) && !strings.Contains(fold(r.TypeName), q) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.TypeID != 0 && r.TypeID != f.TypeID {
			continue
		}
		if f.Floor != 0 && r.Floor != f.Floor {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Floors lists the distinct floors present, ascending.
func Floors(rooms []domain.Room) []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range rooms {
		if !seen[r.Floor] {
			seen[r.Floor] = true
			out = append(out, r.Floor)
		}
	}
	sort.Ints(out)
	return out
}

// FilterReservations matches the search term against the booking code and
// the client's name and e-mail.
func FilterReservations(rs []domain.Reservation, search string) []domain.Reservation {
	q := fold(search)
	if q == "" {
		return rs
	}
	out := make([]domain.Reservation, 0, len(rs))
	for _, r := range rs {
		for _, s := range []string{r.Code, r.ClientFirstName, r.ClientLastName, r.ClientEmail} {
			if strings.Contains(fold(s), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

type UserFilter struct {
	Search string
	Role   string
	Active string // "activo" | "inactivo" | ""
}

func FilterUsers(us []domain.User, f UserFilter) []domain.User {
	q := fold(f.Search)
	out := make([]domain.User, 0, len(us))
	for _, u := range us {
		if q != "" && !strings.Contains(fold(u.FirstName), q) &&
			!strings.Contains(fold(u.LastName), q) && !strings.Contains(fold(u.Email), q) {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		switch f.Active {
		case "activo":
			if !u.Active {
				continue
			}
		case "inactivo":
			if u.Active {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

// FitGuests drops rooms too small for the party. A capacity of 0 means the
// API did not say, and the room is kept.
func FitGuests(rooms []domain.Room, guests int) []domain.Room {
	if guests <= 1 {
		return rooms
	}
	out := make([]domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.MaxGuests == 0 || r.MaxGuests >= guests {
			out = append(out, r)
		}
	}
	return out
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
