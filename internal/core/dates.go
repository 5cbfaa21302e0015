package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Layouts accepted by ParseDate, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Date is a calendar day. The zero value means "no date".
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// ParseDate parses ISO (2024-05-10), Brazilian (10/05/2024) and RFC3339
// inputs. Time of day is discarded.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Key returns the normalized ISO form used for grouping, or "" when empty.
func (d Date) Key() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// FormatDate renders d as dd/mm/yyyy, the format shown to the user.
func FormatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// LocalMidnight returns the start of d's calendar day in loc.
func (d Date) LocalMidnight(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns whole days from a to b, measured between local
// midnights. Rounding absorbs DST shifts.
func DaysBetween(a, b Date) int {
	diff := b.LocalMidnight(time.Local).Sub(a.LocalMidnight(time.Local))
	return int(math.Round(diff.Hours() / 24))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Key())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
