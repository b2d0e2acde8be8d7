package calendar

import (
	"fmt"
	"time"
)

// bsMonthDays maps a BS year to the length of each of its 12 months. The data
// follows the official Nepali calendar tables; years outside this range are
// rejected rather than approximated.
var bsMonthDays = map[int][12]int{
	2060: {31, 32, 31, 32, 31, 30, 30, 29, 30, 29, 30, 30},
	2061: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2062: {30, 32, 31, 32, 31, 31, 29, 30, 29, 30, 29, 31},
	2063: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2064: {31, 31, 32, 32, 31, 30, 30, 29, 30, 29, 30, 30},
	2065: {31, 32, 31, 32, 31, 30, 30, 30, 29, 29, 30, 31},
	2066: {31, 31, 31, 32, 31, 31, 29, 30, 30, 29, 29, 31},
	2067: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2068: {31, 31, 31, 32, 31, 31, 29, 30, 30, 29, 30, 30},
	2069: {31, 32, 31, 32, 31, 30, 30, 30, 29, 30, 29, 31},
	2070: {31, 31, 31, 32, 31, 31, 29, 30, 30, 29, 30, 30},
	2071: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2072: {31, 32, 31, 32, 31, 30, 30, 29, 30, 29, 30, 30},
	2073: {31, 32, 31, 32, 31, 30, 30, 30, 29, 29, 30, 31},
	2074: {31, 31, 31, 32, 31, 31, 30, 29, 30, 29, 30, 30},
	2075: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2076: {31, 32, 31, 32, 31, 30, 30, 30, 29, 29, 30, 31},
	2077: {31, 31, 31, 32, 31, 31, 30, 29, 30, 29, 30, 30},
	2078: {31, 31, 31, 32, 31, 31, 30, 29, 30, 29, 30, 30},
	2079: {31, 31, 32, 31, 31, 31, 30, 29, 30, 29, 30, 30},
	2080: {31, 32, 31, 32, 31, 30, 30, 30, 29, 29, 30, 31},
	2081: {31, 31, 31, 32, 31, 31, 30, 29, 30, 29, 30, 30},
	2082: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2083: {31, 31, 32, 31, 31, 30, 30, 30, 29, 30, 30, 30},
	2084: {31, 31, 32, 31, 31, 30, 30, 30, 29, 30, 30, 30},
	2085: {31, 32, 31, 32, 30, 31, 30, 30, 29, 30, 30, 30},
	2086: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2087: {31, 31, 32, 31, 31, 31, 30, 30, 29, 30, 30, 30},
	2088: {30, 31, 32, 32, 30, 31, 30, 30, 29, 30, 30, 30},
	2089: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
	2090: {30, 32, 31, 32, 31, 30, 30, 30, 29, 30, 30, 30},
}

// anchor: BS 2060-01-01 fell on AD 2003-04-14.
var (
	anchorBS = Date{Year: 2060, Month: 1, Day: 1}
	anchorAD = time.Date(2003, time.April, 14, 0, 0, 0, 0, time.UTC)
)

// BikramSambat implements Calendar using the month-length tables above and a
// fixed Gregorian anchor date. The clock is injectable so billing code can be
// exercised against fabricated dates.
type BikramSambat struct {
	clock func() time.Time
}

// NewBikramSambat returns a calendar driven by the given clock; pass nil for
// the system clock.
func NewBikramSambat(clock func() time.Time) *BikramSambat {
	if clock == nil {
		clock = time.Now
	}
	return &BikramSambat{clock: clock}
}

// Today converts the clock's current Gregorian date to BS by walking the
// month tables forward from the anchor.
func (c *BikramSambat) Today() Date {
	now := c.clock().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(anchorAD).Hours() / 24)

	d := anchorBS
	for days > 0 {
		monthLen, err := c.DaysInMonth(d.Year, d.Month)
		if err != nil {
			// Clock outside the table range; return the last representable day.
			return d
		}
		remaining := monthLen - d.Day + 1
		if days < remaining {
			d.Day += days
			return d
		}
		days -= remaining
		d.Day = 1
		d.Month++
		if d.Month > 12 {
			d.Month = 1
			d.Year++
		}
	}
	return d
}

// DaysInMonth returns the length of a BS month.
func (c *BikramSambat) DaysInMonth(year, month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("month %d out of range", month)
	}
	months, ok := bsMonthDays[year]
	if !ok {
		return 0, fmt.Errorf("year %d outside calendar table", year)
	}
	return months[month-1], nil
}

// AddMonths moves d forward by n months, clamping the day to the length of the
// target month.
func (c *BikramSambat) AddMonths(d Date, n int) (Date, error) {
	total := d.Month - 1 + n
	year := d.Year + total/12
	month := total%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	monthLen, err := c.DaysInMonth(year, month)
	if err != nil {
		return Date{}, err
	}
	day := d.Day
	if day > monthLen {
		day = monthLen
	}
	return Date{Year: year, Month: month, Day: day}, nil
}
