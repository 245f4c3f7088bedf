package retention

import (
	"fmt"
	"time"
)

// DateLayout is the layout of configured start dates and of every date
// literal written into generated SQL.
const DateLayout = "20060102"

// totalsHorizonYears pushes the register totals boundary far enough into the
// future that only the service rows dated beyond it survive.
const totalsHorizonYears = 100

// ParseStartDate parses a YYYYMMDD date.
func ParseStartDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q (expected YYYYMMDD): %w", s, err)
	}
	return t, nil
}

// Window is the retention window of one run.
type Window struct {
	// Start is the configured first day to keep, in calendar years.
	Start time.Time

	// YearOffset is the shift the database applies to stored dates.
	YearOffset int

	// Today is the run date.
	Today time.Time
}

// NewWindow creates a window. Only the date part of today is used.
func NewWindow(start time.Time, yearOffset int, today time.Time) Window {
	return Window{
		Start:      dateOnly(start),
		YearOffset: yearOffset,
		Today:      dateOnly(today),
	}
}

// Cutoff is the start date as stored in the database.
func (w Window) Cutoff() time.Time {
	return AddYears(w.Start, w.YearOffset)
}

// TotalsBoundary is the date register total rows must exceed to be kept.
func (w Window) TotalsBoundary() time.Time {
	return AddYears(w.Today, w.YearOffset+totalsHorizonYears)
}

// String renders the window for logs.
func (w Window) String() string {
	return fmt.Sprintf("start=%s offset=%d cutoff=%s",
		w.Start.Format(DateLayout), w.YearOffset, w.Cutoff().Format(DateLayout))
}

// AddYears shifts t by n calendar years. February 29 becomes February 28
// when the target year is not a leap year.
func AddYears(t time.Time, n int) time.Time {
	year := t.Year() + n
	day := t.Day()
	if t.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Literal renders t as a quoted T-SQL date literal.
func Literal(t time.Time) string {
	return "'" + t.Format(DateLayout) + "'"
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
