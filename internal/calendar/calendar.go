package calendar

import (
	"errors"
	"time"

	"caseflow/internal/model"
)

// MaxDuration caps stage durations so end-date computation stays bounded.
const MaxDuration = 3650

// ErrInvalidDuration indicates a negative or out-of-range stage duration.
var ErrInvalidDuration = errors.New("calendar: duration must be between 0 and 3650 days")

// ErrUnknownDayType indicates a day type outside the supported set.
var ErrUnknownDayType = errors.New("calendar: unknown day type")

// BusinessCalendar classifies calendar dates as business days against an
// immutable holiday set. Comparison is by calendar date, never by instant,
// so holidays loaded at midnight match dates carrying any time of day.
type BusinessCalendar struct {
	holidays map[string]bool
}

const dateKey = "2006-01-02"

// New builds a calendar from the supplied holiday dates. Duplicates collapse.
func New(holidays []time.Time) *BusinessCalendar {
	set := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		set[h.Format(dateKey)] = true
	}
	return &BusinessCalendar{holidays: set}
}

// IsBusinessDay returns false iff d falls on a Saturday, Sunday, or a listed
// holiday.
func (c *BusinessCalendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(d)
}

// IsHoliday reports an exact calendar-date match against the holiday set.
func (c *BusinessCalendar) IsHoliday(d time.Time) bool {
	return c.holidays[d.Format(dateKey)]
}

// Truncate drops the time component, keeping the calendar date.
func Truncate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// SameDate reports whether two instants fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Format(dateKey) == b.Format(dateKey)
}

// ComputeEndDate advances from start one calendar day at a time until
// duration days have counted under the given day type, and returns the date
// of the last counted advance. start itself never counts. A zero duration or
// a no-deadline day type yields start unchanged (date-truncated).
//
// The result depends only on the arguments; there is no clock access.
func ComputeEndDate(start time.Time, duration int, dayType model.DayType, cal *BusinessCalendar) (time.Time, error) {
	if duration < 0 || duration > MaxDuration {
		return time.Time{}, ErrInvalidDuration
	}
	cur := Truncate(start)
	if duration == 0 || dayType == model.DayTypeNone {
		return cur, nil
	}

	businessOnly := false
	switch dayType {
	case model.DayTypeContinuous:
	case model.DayTypeBusinessAdmin, model.DayTypeBusinessCourt:
		businessOnly = true
	default:
		return time.Time{}, ErrUnknownDayType
	}

	counted := 0
	for counted < duration {
		cur = cur.AddDate(0, 0, 1)
		if !businessOnly || cal.IsBusinessDay(cur) {
			counted++
		}
	}
	return cur, nil
}
