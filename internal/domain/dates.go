package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// ParseDate parses a calendar date and returns it as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// MidnightUTC drops the clock part of t, keeping its calendar date.
func MidnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Nights is the number of nights between check-in and check-out, never negative.
func Nights(checkIn, checkOut time.Time) int {
	days := MidnightUTC(checkOut).Sub(MidnightUTC(checkIn)).Hours() / 24
	n := int(math.Round(days))
	if n < 0 {
		return 0
	}
	return n
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
