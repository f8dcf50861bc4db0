// Package caldate converts calendar dates between the ISO form used at the
// HTTP boundary (YYYY-MM-DD) and the display form persisted in the ledger
// (DD-MM-YYYY).
package caldate

import (
	"fmt"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	displayLayout = "02-01-2006"
)

// Date is a proleptic Gregorian calendar date with no time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// InvalidDateError reports text that is not a well-formed, real calendar date.
type InvalidDateError struct {
	Value  string
	Format string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: want %s", e.Value, e.Format)
}

// ParseISO parses YYYY-MM-DD.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, &InvalidDateError{Value: s, Format: "YYYY-MM-DD"}
	}
	return fromTime(t), nil
}

// ParseDisplay parses DD-MM-YYYY.
func ParseDisplay(s string) (Date, error) {
	t, err := time.Parse(displayLayout, s)
	if err != nil {
		return Date{}, &InvalidDateError{Value: s, Format: "DD-MM-YYYY"}
	}
	return fromTime(t), nil
}

// Parse accepts either form. The two layouts never overlap because the
// four-digit year sits at opposite ends.
func Parse(s string) (Date, error) {
	if d, err := ParseDisplay(s); err == nil {
		return d, nil
	}
	if d, err := ParseISO(s); err == nil {
		return d, nil
	}
	return Date{}, &InvalidDateError{Value: s, Format: "DD-MM-YYYY or YYYY-MM-DD"}
}

// ToDisplay converts ISO text to display text.
func ToDisplay(iso string) (string, error) {
	d, err := ParseISO(iso)
	if err != nil {
		return "", err
	}
	return d.Display(), nil
}

// ToISO converts display text to ISO text.
func ToISO(display string) (string, error) {
	d, err := ParseDisplay(display)
	if err != nil {
		return "", err
	}
	return d.ISO(), nil
}

func fromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ISO renders the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Display renders the date as DD-MM-YYYY.
func (d Date) Display() string {
	return fmt.Sprintf("%02d-%02d-%04d", d.Day, int(d.Month), d.Year)
}

func (d Date) String() string { return d.ISO() }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Compare returns -1, 0 or +1 in calendar order.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Day - o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// Range is an inclusive span of dates. A range whose start is after its
// end is valid and contains nothing.
type Range struct {
	Start Date
	End   Date
}

// NewRange builds a range from two ISO strings.
func NewRange(startISO, endISO string) (Range, error) {
	start, err := ParseISO(startISO)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseISO(endISO)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// Contains reports whether d lies within r, bounds included.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}
