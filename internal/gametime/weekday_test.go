package gametime

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestWeekdayOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Time
		want Weekday
	}{
		{date(2024, time.July, 8, 0, 0), Monday},
		{date(2024, time.July, 9, 0, 0), Tuesday},
		{date(2024, time.July, 12, 0, 0), Friday},
		{date(2024, time.July, 13, 0, 0), Saturday},
		{date(2024, time.July, 14, 0, 0), Sunday},
	}
	for _, tc := range tests {
		if got := WeekdayOf(tc.in); got != tc.want {
			t.Errorf("WeekdayOf(%s) = %s, want %s", tc.in.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestNextWeekday(t *testing.T) {
	t.Parallel()

	cutoff8 := TimeOfDay{Hour: 8}

	tests := []struct {
		name        string
		source      time.Time
		target      Weekday
		includeWeek bool
		cutoff      *TimeOfDay
		wantDate    time.Time
	}{
		{
			name:        "forward within week",
			source:      date(2024, time.July, 10, 12, 0), // Wednesday
			target:      Friday,
			includeWeek: true,
			wantDate:    date(2024, time.July, 12, 12, 0),
		},
		{
			name:        "wraps past weekend",
			source:      date(2024, time.July, 10, 12, 0), // Wednesday
			target:      Tuesday,
			includeWeek: true,
			wantDate:    date(2024, time.July, 16, 12, 0),
		},
		{
			name:        "same day counts without cutoff",
			source:      date(2024, time.July, 9, 23, 0), // Tuesday
			target:      Tuesday,
			includeWeek: true,
			wantDate:    date(2024, time.July, 9, 23, 0),
		},
		{
			name:        "same day excluded jumps a week",
			source:      date(2024, time.July, 9, 1, 0), // Tuesday
			target:      Tuesday,
			includeWeek: false,
			wantDate:    date(2024, time.July, 16, 1, 0),
		},
		{
			name:        "same day before cutoff counts",
			source:      date(2024, time.July, 9, 7, 0), // Tuesday 07:00
			target:      Tuesday,
			includeWeek: true,
			cutoff:      &cutoff8,
			wantDate:    date(2024, time.July, 9, 7, 0),
		},
		{
			name:        "same day past cutoff jumps a week",
			source:      date(2024, time.July, 9, 9, 0), // Tuesday 09:00
			target:      Tuesday,
			includeWeek: true,
			cutoff:      &cutoff8,
			wantDate:    date(2024, time.July, 16, 9, 0),
		},
		{
			name:        "same day exactly at cutoff jumps a week",
			source:      date(2024, time.July, 9, 8, 0),
			target:      Tuesday,
			includeWeek: true,
			cutoff:      &cutoff8,
			wantDate:    date(2024, time.July, 16, 8, 0),
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NextWeekday(tc.source, tc.target, tc.includeWeek, tc.cutoff)
			if !got.Equal(tc.wantDate) {
				t.Errorf("NextWeekday() = %s, want %s", got, tc.wantDate)
			}
			if WeekdayOf(got) != tc.target {
				t.Errorf("NextWeekday() landed on %s, want %s", WeekdayOf(got), tc.target)
			}
		})
	}
}

func TestAt(t *testing.T) {
	t.Parallel()

	day := date(2024, time.July, 9, 23, 45)
	got := At(day, TimeOfDay{Hour: 8, Minute: 30})
	want := date(2024, time.July, 9, 8, 30)
	if !got.Equal(want) {
		t.Errorf("At() = %s, want %s", got, want)
	}
}
