package domain

import (
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD calendar date at UTC midnight. API timestamps
// ("2025-03-01T00:00:00.000Z") are accepted and truncated to the date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}

// ParseDay reads a form date, which must be exactly YYYY-MM-DD.
func ParseDay(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, ErrMissingDates
	}
	return time.Parse(DateLayout, s)
}

// Nights counts started 24h periods between in and out, never negative.
func Nights(in, out time.Time) int {
	d := out.Sub(in)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

type Quote struct {
	Nights int
	Rate   float64
	Total  float64
}

// QuoteStay prices a stay at rate per night. Unparseable dates quote zero.
func QuoteStay(checkIn, checkOut string, rate float64) Quote {
	q := Quote{Rate: math.Max(rate, 0)}
	in, err1 := ParseDate(checkIn)
	out, err2 := ParseDate(checkOut)
	if err1 != nil || err2 != nil {
		return q
	}
	q.Nights = Nights(in, out)
	q.Total = float64(q.Nights) * q.Rate
	return q
}

// DefaultStay is the search pre-fill: one night starting today.
func DefaultStay(now time.Time) (checkIn, checkOut string) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return today.Format(DateLayout), today.AddDate(0, 0, 1).Format(DateLayout)
}

// ValidateStay requires both dates and check-out strictly after check-in.
func ValidateStay(checkIn, checkOut string) error {
	if strings.TrimSpace(checkIn) == "" || strings.TrimSpace(checkOut) == "" {
		return ErrMissingDates
	}
	in, err := ParseDay(checkIn)
	if err != nil {
		return ErrMissingDates
	}
	out, err := ParseDay(checkOut)
	if err != nil {
		return ErrMissingDates
	}
	if !out.After(in) {
		return ErrInvalidStay
	}
	return nil
}
