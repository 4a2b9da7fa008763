package gametime

import "time"

// Fixed reset clocks, all UTC.
var (
	DailyResetTime  = TimeOfDay{Hour: 15}
	WeeklyResetTime = TimeOfDay{Hour: 8}
)

// NextDailyReset returns the next daily reset (15:00 UTC) at or after now.
func NextDailyReset(now time.Time) time.Time {
	now = now.UTC()
	next := now
	if now.Hour() >= DailyResetTime.Hour {
		next = now.AddDate(0, 0, 1)
	}
	return At(next, DailyResetTime)
}

// NextWeeklyReset returns the next weekly reset (Tuesday 08:00 UTC) at or
// after now.
func NextWeeklyReset(now time.Time) time.Time {
	cutoff := WeeklyResetTime
	day := NextWeekday(now, Tuesday, true, &cutoff)
	return At(day, WeeklyResetTime)
}

// Region is a datacenter region with its own weekly lottery draw window.
type Region int

const (
	RegionNA Region = iota + 1
	RegionEU
	RegionJP
	RegionOCE
)

func (r Region) String() string {
	switch r {
	case RegionNA:
		return "NA"
	case RegionEU:
		return "EU"
	case RegionJP:
		return "JP"
	case RegionOCE:
		return "OCE"
	}
	return "unknown"
}

// drawWindow is a fixed weekly draw slot.
type drawWindow struct {
	day Weekday
	tod TimeOfDay
}

// Jumbo cactpot draws are region-staggered. These are fixed constants
// matching observed draw clocks, not derived.
var cactpotDraws = map[Region]drawWindow{
	RegionOCE: {day: Saturday, tod: TimeOfDay{Hour: 9}},
	RegionJP:  {day: Saturday, tod: TimeOfDay{Hour: 11}},
	RegionEU:  {day: Saturday, tod: TimeOfDay{Hour: 19}},
	RegionNA:  {day: Sunday, tod: TimeOfDay{Hour: 1}},
}

// NextCactpotDraw returns the next jumbo cactpot draw for the region at or
// after now.
func NextCactpotDraw(region Region, now time.Time) time.Time {
	w, ok := cactpotDraws[region]
	if !ok {
		// Unknown regions fall back to the NA window.
		w = cactpotDraws[RegionNA]
	}
	cutoff := w.tod
	day := NextWeekday(now, w.day, true, &cutoff)
	return At(day, w.tod)
}

// FashionReportStart is the first week of fashion report judging
// (2018-01-26T08:00:00Z). Week numbers count from here.
var FashionReportStart = time.Date(2018, time.January, 26, 8, 0, 0, 0, time.UTC)

// FashionReportWeek returns the report week number for the given instant.
func FashionReportWeek(now time.Time) int {
	td := now.UTC().Sub(FashionReportStart)
	return int(td / (7 * 24 * time.Hour))
}

// NextFashionReportJudging returns the next Friday 08:00 UTC at or after now,
// which is when judging (and the community report) becomes available.
func NextFashionReportJudging(now time.Time) time.Time {
	cutoff := TimeOfDay{Hour: 8}
	day := NextWeekday(now, Friday, true, &cutoff)
	return At(day, cutoff)
}

// FashionReportOpen reports whether judging is currently open: Friday 08:00
// UTC through Tuesday 08:00 UTC.
func FashionReportOpen(now time.Time) bool {
	now = now.UTC()
	wd := WeekdayOf(now)
	past8 := atOrAfter(now, TimeOfDay{Hour: 8})
	switch wd {
	case Friday:
		return past8
	case Saturday, Sunday, Monday:
		return true
	case Tuesday:
		return !past8
	default:
		return false
	}
}
