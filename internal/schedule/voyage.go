package schedule

import (
	"fmt"
	"time"
)

// Route is an ocean fishing route. The route is named after its final stop.
type Route int

const (
	RouteIndigo Route = iota
	RouteRuby
)

func (r Route) String() string {
	if r == RouteRuby {
		return "Ruby"
	}
	return "Indigo"
}

// Destination is a voyage's final stop.
type Destination int

const (
	DestNorthernStraitOfMerlthor Destination = iota
	DestRhotanoSea
	DestBloodbrineSea
	DestRothlytSound
	DestRubySea
	DestOneRiver
)

func (d Destination) String() string {
	switch d {
	case DestNorthernStraitOfMerlthor:
		return "The Northern Strait of Merlthor"
	case DestRhotanoSea:
		return "Rhotano Sea"
	case DestBloodbrineSea:
		return "The Bloodbrine Sea"
	case DestRothlytSound:
		return "The Rothlyt Sound"
	case DestRubySea:
		return "The Ruby Sea"
	case DestOneRiver:
		return "The One River"
	}
	return fmt.Sprintf("Destination(%d)", int(d))
}

// TimeSlot is the in-game time of day a voyage sails at.
type TimeSlot int

const (
	TimeDay TimeSlot = iota
	TimeSunset
	TimeNight
)

func (t TimeSlot) String() string {
	switch t {
	case TimeDay:
		return "Day"
	case TimeSunset:
		return "Sunset"
	case TimeNight:
		return "Night"
	}
	return fmt.Sprintf("TimeSlot(%d)", int(t))
}

// Voyage is one 2-hour schedule slot: a destination/time pair with its
// registration window start. Pure value; no persisted identity.
type Voyage struct {
	Route       Route
	StartTime   time.Time
	Destination Destination
	Time        TimeSlot
}

// SetsSail is when registration closes: 15 minutes after the window opens.
func (v Voyage) SetsSail() time.Time { return v.StartTime.Add(15 * time.Minute) }

func (v Voyage) HasSetSail(now time.Time) bool { return v.SetsSail().Before(now) }

func (v Voyage) Details() string {
	return fmt.Sprintf("%q at %s", v.Destination.String(), v.Time.String())
}

// Stops returns the three stops of the voyage with the in-game time each is
// fished at.
func (v Voyage) Stops() []StopTime {
	stops := stopsByDestination[v.Destination]
	times := stopTimesBySlot[v.Time]
	out := make([]StopTime, 0, len(stops))
	for i, s := range stops {
		out = append(out, StopTime{Stop: s, Time: times[i%len(times)]})
	}
	return out
}

// StopTime pairs an intermediate stop with its in-game time of day.
type StopTime struct {
	Stop string
	Time TimeSlot
}

const (
	// voyageEpoch is the slot-index-zero anchor: 2020-06-28T00:00:00Z.
	voyageEpoch int64 = 1593302400

	slotWidth int64 = 7200 // seconds

	// voyageTableLen covers one full repeat of the combined cycles:
	// 12 slots/day for 12 days.
	voyageTableLen = 144
)

var destinationCycle = map[Route][]Destination{
	RouteIndigo: {DestBloodbrineSea, DestRothlytSound, DestNorthernStraitOfMerlthor, DestRhotanoSea},
	RouteRuby:   {DestOneRiver, DestRubySea},
}

var timeCycle = map[Route][]TimeSlot{
	RouteIndigo: {
		TimeSunset, TimeSunset, TimeSunset, TimeSunset,
		TimeNight, TimeNight, TimeNight, TimeNight,
		TimeDay, TimeDay, TimeDay, TimeDay,
	},
	RouteRuby: {TimeDay, TimeDay, TimeSunset, TimeSunset, TimeNight, TimeNight},
}

var stopsByDestination = map[Destination][]string{
	DestNorthernStraitOfMerlthor: {"The Southern Strait of Merlthor", "Galadion Bay", "The Northern Strait of Merlthor"},
	DestRhotanoSea:               {"Galadion Bay", "The Southern Strait of Merlthor", "Rhotano Sea"},
	DestBloodbrineSea:            {"The Cieldalaes", "The Northern Strait of Merlthor", "The Bloodbrine Sea"},
	DestRothlytSound:             {"The Cieldalaes", "Rhotano Sea", "The Rothlyt Sound"},
	DestRubySea:                  {"The Sirensong Sea", "Kugane", "The Ruby Sea"},
	DestOneRiver:                 {"The Sirensong Sea", "Kugane", "The One River"},
}

// The time a voyage sails at rotates backwards across its stops.
var stopTimesBySlot = map[TimeSlot][]TimeSlot{
	TimeDay:    {TimeSunset, TimeNight, TimeDay},
	TimeNight:  {TimeDay, TimeSunset, TimeNight},
	TimeSunset: {TimeNight, TimeDay, TimeSunset},
}

type slotPair struct {
	dest Destination
	time TimeSlot
}

// VoyageCalendar maps any point in time to the recurring voyage schedule.
//
// One full least-common-multiple cycle per route is stepped out once at
// construction; afterwards lookups are modulo arithmetic plus a table read.
// Safe for concurrent use after New.
type VoyageCalendar struct {
	table map[Route][]slotPair
}

func NewVoyageCalendar() *VoyageCalendar {
	c := &VoyageCalendar{table: make(map[Route][]slotPair, 2)}
	for _, r := range []Route{RouteIndigo, RouteRuby} {
		c.table[r] = stepVoyages(r, time.Unix(2700, 0).UTC(), voyageTableLen)
	}
	return c
}

// startTimeOf returns the wall-clock start of the given global slot index.
func startTimeOf(slotIndex int64) time.Time {
	return time.Unix((slotIndex+1)*slotWidth, 0).UTC()
}

// slotIndexFor returns the global index of the slot considered current for
// the query time. A slot stays current for 45 minutes past its start (the
// registration window plus grace), then the next slot takes over.
func slotIndexFor(t time.Time) int64 {
	return floorDiv(t.UTC().Unix()-2700, slotWidth)
}

// SlotFor returns the voyage slot current (or next to open) at t.
func (c *VoyageCalendar) SlotFor(route Route, t time.Time) Voyage {
	return c.Upcoming(route, t, 1)[0]
}

// Upcoming returns count consecutive voyage slots for the route starting with
// the slot current at from. Start times are strictly increasing with no
// duplicates and no gaps.
func (c *VoyageCalendar) Upcoming(route Route, from time.Time, count int) []Voyage {
	if count <= 0 {
		return nil
	}
	table := c.table[route]
	start := slotIndexFor(from)

	out := make([]Voyage, 0, count)
	for i := 0; i < count; i++ {
		idx := start + int64(i)
		p := table[posMod(idx, voyageTableLen)]
		out = append(out, Voyage{
			Route:       route,
			StartTime:   startTimeOf(idx),
			Destination: p.dest,
			Time:        p.time,
		})
	}
	return out
}

// stepVoyages replays the raw stepping loop used to fill the lookup table.
//
// The +9h/-45m adjustment and the odd/even hour bump compensate for the
// source schedule's slot boundaries not being aligned to calendar hours.
// This correction is a fixed black-box rule preserved as observed; do not
// re-derive it.
func stepVoyages(route Route, dt time.Time, count int) []slotPair {
	dests := destinationCycle[route]
	times := timeCycle[route]

	adjusted := dt.Add(9 * time.Hour).Add(-45 * time.Minute)
	day := floorDiv(adjusted.Unix()-voyageEpoch, 86400)
	hour := adjusted.UTC().Hour()

	if hour&1 == 1 {
		hour += 2
	} else {
		hour++
	}
	if hour > 23 {
		day++
		hour -= 24
	}

	voyageNumber := hour >> 1
	destIndex := posMod(day+int64(voyageNumber), len(dests))
	timeIndex := posMod(day+int64(voyageNumber), len(times))

	out := make([]slotPair, 0, count)
	for len(out) < count {
		out = append(out, slotPair{dest: dests[destIndex], time: times[timeIndex]})

		if hour == 23 {
			// The midnight slot does not exist; the cycles skip an index.
			day++
			hour = 1
			destIndex = (destIndex + 2) % len(dests)
			timeIndex = (timeIndex + 2) % len(times)
		} else {
			hour += 2
			destIndex = (destIndex + 1) % len(dests)
			timeIndex = (timeIndex + 1) % len(times)
		}
	}
	return out
}

// floorDiv divides rounding toward negative infinity (Go's / truncates).
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// posMod returns a mod n in [0, n), even for negative a.
func posMod[T ~int | ~int64](a T, n int) int {
	m := int(a % T(n))
	if m < 0 {
		m += n
	}
	return m
}
