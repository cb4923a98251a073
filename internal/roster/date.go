package roster

import (
	"fmt"
	"time"
)

// Date is a calendar day, proleptic Gregorian, with no time-of-day or
// location component. It is a plain comparable value so it can be used
// directly as a map key (for forbidden/fixed/requested-off sets and for
// per-date demand lookups).
type Date struct {
	Year  int
	Month int
	Day   int
}

// NewDate constructs a Date, normalizing through time.Date so that
// out-of-range days (e.g. day 32) roll over the way the standard library
// calendar does.
func NewDate(year, month, day int) Date {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func (d Date) time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the date as YYYY-MM-DD, the wire format used throughout
// the external interfaces (§6).
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	if len(b) < 2 {
		return fmt.Errorf("roster: invalid date literal %q", b)
	}
	t, err := time.Parse("2006-01-02", string(b[1:len(b)-1]))
	if err != nil {
		return fmt.Errorf("roster: invalid date literal %q: %w", b, err)
	}
	d.Year, d.Month, d.Day = t.Year(), int(t.Month()), t.Day()
	return nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t := d.time().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Weekday returns the day of week, 0=Sunday .. 6=Saturday, matching §3's
// `weekday∈{0..6}` field.
func (d Date) Weekday() int {
	return int(d.time().Weekday())
}

// IsWeekend reports whether d falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == 0 || wd == 6
}

// ISOWeek returns the (year, week) bucket per ISO-8601, used by the Rule
// Compiler to build per-nurse weekly-cap buckets (§4.1, spec Open Question
// resolved in favor of ISO weeks in SPEC_FULL.md).
func (d Date) ISOWeek() (int, int) {
	return d.time().ISOWeek()
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.time().Before(o.time())
}

// DaysInMonth returns the number of days in the given proleptic Gregorian
// month, correctly accounting for leap Februaries (boundary case B1).
func DaysInMonth(year, month int) int {
	firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// MonthDates returns the contiguous list of dates for (year, month), day 1
// through the last day, per §3's invariant that dates form a contiguous
// month.
func MonthDates(year, month int) []Date {
	n := DaysInMonth(year, month)
	out := make([]Date, n)
	for i := 0; i < n; i++ {
		out[i] = NewDate(year, month, i+1)
	}
	return out
}
