package schedule

import (
	"testing"
	"time"
)

// anchor is 2020-06-28T00:00:00Z, a known slot boundary on both routes.
var anchor = time.Unix(1593302400, 0).UTC()

func TestSlotForKnownVoyages(t *testing.T) {
	t.Parallel()
	cal := NewVoyageCalendar()

	tests := []struct {
		name      string
		route     Route
		at        time.Time
		wantDest  Destination
		wantTime  TimeSlot
		wantStart time.Time
	}{
		{"indigo anchor", RouteIndigo, anchor, DestBloodbrineSea, TimeNight, anchor},
		{"indigo next slot", RouteIndigo, anchor.Add(2 * time.Hour), DestRothlytSound, TimeNight, anchor.Add(2 * time.Hour)},
		{"ruby anchor", RouteRuby, anchor, DestOneRiver, TimeNight, anchor},
		{"ruby next slot", RouteRuby, anchor.Add(2 * time.Hour), DestRubySea, TimeNight, anchor.Add(2 * time.Hour)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := cal.SlotFor(tc.route, tc.at)
			if v.Destination != tc.wantDest || v.Time != tc.wantTime {
				t.Errorf("SlotFor(%s, %s) = %s/%s, want %s/%s",
					tc.route, tc.at, v.Destination, v.Time, tc.wantDest, tc.wantTime)
			}
			if !v.StartTime.Equal(tc.wantStart) {
				t.Errorf("StartTime = %s, want %s", v.StartTime, tc.wantStart)
			}
			if v.Route != tc.route {
				t.Errorf("Route = %s, want %s", v.Route, tc.route)
			}
		})
	}
}

func TestSlotGraceWindow(t *testing.T) {
	t.Parallel()
	cal := NewVoyageCalendar()

	// A slot stays current for 45 minutes past its start.
	within := cal.SlotFor(RouteIndigo, anchor.Add(44*time.Minute))
	if !within.StartTime.Equal(anchor) {
		t.Errorf("44m in: StartTime = %s, want %s", within.StartTime, anchor)
	}

	past := cal.SlotFor(RouteIndigo, anchor.Add(45*time.Minute))
	if !past.StartTime.Equal(anchor.Add(2 * time.Hour)) {
		t.Errorf("45m in: StartTime = %s, want %s", past.StartTime, anchor.Add(2*time.Hour))
	}
}

func TestUpcomingContiguous(t *testing.T) {
	t.Parallel()
	cal := NewVoyageCalendar()

	for _, route := range []Route{RouteIndigo, RouteRuby} {
		voyages := cal.Upcoming(route, anchor.Add(17*time.Minute), 24)
		if len(voyages) != 24 {
			t.Fatalf("%s: got %d voyages, want 24", route, len(voyages))
		}
		for i := 1; i < len(voyages); i++ {
			gap := voyages[i].StartTime.Sub(voyages[i-1].StartTime)
			if gap != 2*time.Hour {
				t.Errorf("%s: gap between slot %d and %d = %s, want 2h", route, i-1, i, gap)
			}
		}
	}
}

func TestCalendarDeterministic(t *testing.T) {
	t.Parallel()

	a := NewVoyageCalendar()
	b := NewVoyageCalendar()
	probes := []time.Time{
		anchor,
		anchor.Add(31 * 24 * time.Hour),
		anchor.Add(365 * 24 * time.Hour),
		anchor.Add(-90 * 24 * time.Hour),
	}
	for _, route := range []Route{RouteIndigo, RouteRuby} {
		for _, at := range probes {
			va, vb := a.SlotFor(route, at), b.SlotFor(route, at)
			if va != vb {
				t.Errorf("%s at %s: calendars disagree: %+v vs %+v", route, at, va, vb)
			}
		}
	}
}

func TestVoyageStops(t *testing.T) {
	t.Parallel()

	v := Voyage{Route: RouteIndigo, Destination: DestBloodbrineSea, Time: TimeNight}
	stops := v.Stops()
	if len(stops) != 3 {
		t.Fatalf("got %d stops, want 3", len(stops))
	}
	if stops[2].Stop != "The Bloodbrine Sea" {
		t.Errorf("final stop = %q, want The Bloodbrine Sea", stops[2].Stop)
	}
	// Stop times rotate backwards from the sail time.
	want := []TimeSlot{TimeDay, TimeSunset, TimeNight}
	for i, st := range stops {
		if st.Time != want[i] {
			t.Errorf("stop %d time = %s, want %s", i, st.Time, want[i])
		}
	}
}

func TestSetsSail(t *testing.T) {
	t.Parallel()

	v := Voyage{StartTime: anchor}
	if got := v.SetsSail(); !got.Equal(anchor.Add(15 * time.Minute)) {
		t.Errorf("SetsSail() = %s, want %s", got, anchor.Add(15*time.Minute))
	}
	if v.HasSetSail(anchor.Add(10 * time.Minute)) {
		t.Error("HasSetSail() = true before registration closed")
	}
	if !v.HasSetSail(anchor.Add(16 * time.Minute)) {
		t.Error("HasSetSail() = false after registration closed")
	}
}

func TestFloorDiv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b, want int64
	}{
		{7, 2, 3},
		{-7, 2, -4},
		{-8, 2, -4},
		{8, -2, -4},
		{0, 5, 0},
	}
	for _, tc := range tests {
		if got := floorDiv(tc.a, tc.b); got != tc.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPosMod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a    int64
		n    int
		want int
	}{
		{5, 3, 2},
		{-1, 3, 2},
		{-18436, 4, 0},
		{221291, 144, 107},
	}
	for _, tc := range tests {
		if got := posMod(tc.a, tc.n); got != tc.want {
			t.Errorf("posMod(%d, %d) = %d, want %d", tc.a, tc.n, got, tc.want)
		}
	}
}
