// Package calendar provides Bikram Sambat (BS) date handling for the academy.
// Dates are carried around as zero-padded YYYY-MM-DD keys so that string
// comparison matches chronological comparison everywhere in the ledger.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// Date is a single day in the Bikram Sambat calendar.
type Date struct {
	Year  int
	Month int
	Day   int
}

var monthNames = [12]string{
	"Baishakh", "Jestha", "Ashadh", "Shrawan", "Bhadra", "Ashwin",
	"Kartik", "Mangsir", "Poush", "Magh", "Falgun", "Chaitra",
}

// Key formats the date as a sortable YYYY-MM-DD string.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MonthName returns the BS month name, e.g. "Magh".
func (d Date) MonthName() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return monthNames[d.Month-1]
}

// PeriodKey returns the human billing-period label, e.g. "Magh 2081".
func (d Date) PeriodKey() string {
	return fmt.Sprintf("%s %d", d.MonthName(), d.Year)
}

// PeriodColumn returns the structured billing-period key, e.g. "2081-10".
func (d Date) PeriodColumn() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.Key() < other.Key()
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Parse converts a YYYY-MM-DD key back into a Date. It is strict: the key must
// be zero-padded and the fields in range, otherwise string ordering and
// chronological ordering diverge and the ledger cannot be recomputed safely.
func Parse(key string) (Date, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return Date{}, fmt.Errorf("malformed date key %q", key)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("malformed date key %q", key)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("malformed date key %q", key)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("malformed date key %q", key)
	}
	if month < 1 || month > 12 || day < 1 || day > 32 {
		return Date{}, fmt.Errorf("date key %q out of range", key)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// Calendar is the date service the billing code consumes. Implementations must
// be pure apart from Today.
type Calendar interface {
	// Today returns the current BS date.
	Today() Date
	// DaysInMonth returns the number of days in the given BS month.
	DaysInMonth(year, month int) (int, error)
	// AddMonths moves a date forward by n months, clamping the day to the
	// target month's length.
	AddMonths(d Date, n int) (Date, error)
}
