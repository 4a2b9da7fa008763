package gametime

import (
	"fmt"
	"time"
)

// Weekday is an ISO-8601 weekday (Monday=1 .. Sunday=7).
//
// All weekday arithmetic in this repo uses ISO numbering. Do not mix these
// constants with time.Weekday (Sunday=0) values.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

func (w Weekday) String() string {
	switch w {
	case Monday:
		return "Monday"
	case Tuesday:
		return "Tuesday"
	case Wednesday:
		return "Wednesday"
	case Thursday:
		return "Thursday"
	case Friday:
		return "Friday"
	case Saturday:
		return "Saturday"
	case Sunday:
		return "Sunday"
	}
	return fmt.Sprintf("Weekday(%d)", int(w))
}

// WeekdayOf converts a time.Time's weekday to ISO numbering.
func WeekdayOf(t time.Time) Weekday {
	wd := t.Weekday()
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd)
}

// TimeOfDay is a wall-clock time within a day, interpreted in UTC.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// atOrAfter reports whether dt's time-of-day is at or past t.
func atOrAfter(dt time.Time, t TimeOfDay) bool {
	h, m, _ := dt.Clock()
	if h != t.Hour {
		return h > t.Hour
	}
	return m >= t.Minute
}

// NextWeekday returns the next datetime whose weekday equals target.
//
// Semantics:
//   - If source is already on the target weekday:
//   - currentWeekIncluded=false advances a full week regardless of time.
//   - With a cutoff, a source at or past the cutoff advances a full week
//     (today's window has passed); otherwise today counts.
//   - Without a cutoff, today counts.
//   - Otherwise the result is 1..7 days forward of source.
//
// The result's time-of-day is NOT normalized; callers combine the returned
// date with a fixed clock time (e.g. 08:00 UTC). This deliberately separates
// "which day" from "what time".
func NextWeekday(source time.Time, target Weekday, currentWeekIncluded bool, cutoff *TimeOfDay) time.Time {
	source = source.UTC()
	cur := WeekdayOf(source)

	if cur == target {
		if !currentWeekIncluded {
			return source.AddDate(0, 0, 7)
		}
		if cutoff != nil && atOrAfter(source, *cutoff) {
			// At or past the cutoff: today's occurrence is gone.
			return source.AddDate(0, 0, 7)
		}
		return source
	}

	diff := (int(target) - int(cur) + 7) % 7
	return source.AddDate(0, 0, diff)
}

// At returns day's date combined with the given UTC clock time.
func At(day time.Time, tod TimeOfDay) time.Time {
	day = day.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC)
}
