package dateutil

import (
	"time"

	"github.com/google/uuid"
)

// DayLayout is the calendar-date format used for streak bookkeeping and
// day records ("2024-01-31").
const DayLayout = "2006-01-02"

// DayString returns the calendar date of t in its own location.
func DayString(t time.Time) string {
	return t.Format(DayLayout)
}

// PreviousDay returns the calendar date one day before the given date.
// Invalid input is returned unchanged.
func PreviousDay(date string) string {
	t, err := time.ParseInLocation(DayLayout, date, time.Local)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -1).Format(DayLayout)
}

// DaysBetween returns the absolute number of calendar days between two dates.
// Invalid input yields 0.
func DaysBetween(a, b string) int {
	ta, err := time.ParseInLocation(DayLayout, a, time.Local)
	if err != nil {
		return 0
	}
	tb, err := time.ParseInLocation(DayLayout, b, time.Local)
	if err != nil {
		return 0
	}
	d := tb.Sub(ta).Hours() / 24
	if d < 0 {
		d = -d
	}
	// Round, not truncate: DST days are 23 or 25 hours long.
	return int(d + 0.5)
}

// IsSameDay reports whether t falls on the given calendar date.
func IsSameDay(date string, t time.Time) bool {
	return date != "" && date == DayString(t)
}

// NewID returns a stable unique task identifier.
func NewID() string {
	return uuid.NewString()
}
