package schedule

import (
	"fmt"
	"time"
)

// Gate is one of the Gold Saucer GATE events.
type Gate int

const (
	GateCliffhanger Gate = iota
	GateAirForceOne
	GateLeapOfFaith
	GateAnyWayTheWindBlows
	GateTheSliceIsRight
)

func (g Gate) String() string {
	switch g {
	case GateCliffhanger:
		return "Cliffhanger"
	case GateAirForceOne:
		return "Air Force One"
	case GateLeapOfFaith:
		return "Leap of Faith"
	case GateAnyWayTheWindBlows:
		return "Any Way the Wind Blows"
	case GateTheSliceIsRight:
		return "The Slice Is Right"
	}
	return fmt.Sprintf("Gate(%d)", int(g))
}

// LeapOfFaithCourse is the Leap of Faith variant tied to the spawn minute.
type LeapOfFaithCourse int

const (
	CourseNym LeapOfFaithCourse = iota
	CourseBelahdia
	CourseSylphstep
)

func (c LeapOfFaithCourse) String() string {
	switch c {
	case CourseNym:
		return "Nym"
	case CourseBelahdia:
		return "Belah'dia"
	case CourseSylphstep:
		return "Sylphstep"
	}
	return fmt.Sprintf("LeapOfFaithCourse(%d)", int(c))
}

// GateSpawn is one 20-minute GATE window: the spawn time and the three
// candidate events one of which will open.
type GateSpawn struct {
	At         time.Time
	Candidates []Gate
}

// Candidate pools keyed by spawn minute.
var gatesByMinute = map[int][]Gate{
	0:  {GateCliffhanger, GateAirForceOne, GateLeapOfFaith},
	20: {GateAnyWayTheWindBlows, GateTheSliceIsRight, GateLeapOfFaith},
	40: {GateTheSliceIsRight, GateAirForceOne, GateLeapOfFaith},
}

// NextGate returns the next GATE spawn strictly after the current 20-minute
// window opened. Minutes at or past :40 roll over to the next hour.
func NextGate(now time.Time) GateSpawn {
	resolved := now.UTC().Truncate(time.Minute)

	var minute int
	switch m := resolved.Minute(); {
	case m < 20:
		minute = 20
	case m < 40:
		minute = 40
	default:
		next := resolved.Add(time.Hour)
		at := time.Date(next.Year(), next.Month(), next.Day(), next.Hour(), 0, 0, 0, time.UTC)
		return GateSpawn{At: at, Candidates: gatesByMinute[0]}
	}

	at := time.Date(resolved.Year(), resolved.Month(), resolved.Day(), resolved.Hour(), minute, 0, 0, time.UTC)
	return GateSpawn{At: at, Candidates: gatesByMinute[minute]}
}

// SpawnAt returns the GATE spawn whose 20-minute window contains t.
func SpawnAt(t time.Time) GateSpawn {
	resolved := t.UTC().Truncate(time.Minute)
	minute := (resolved.Minute() / 20) * 20
	at := time.Date(resolved.Year(), resolved.Month(), resolved.Day(), resolved.Hour(), minute, 0, 0, time.UTC)
	return GateSpawn{At: at, Candidates: gatesByMinute[minute]}
}

// LeapOfFaithFor maps a spawn minute to its Leap of Faith course.
func LeapOfFaithFor(minute int) LeapOfFaithCourse {
	switch minute {
	case 0:
		return CourseNym
	case 20:
		return CourseBelahdia
	default:
		return CourseSylphstep
	}
}
