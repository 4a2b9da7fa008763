package gametime

import (
	"testing"
	"time"
)

func TestNextDailyReset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before reset", date(2024, time.July, 9, 14, 59), date(2024, time.July, 9, 15, 0)},
		{"at reset rolls over", date(2024, time.July, 9, 15, 0), date(2024, time.July, 10, 15, 0)},
		{"after reset", date(2024, time.July, 9, 20, 0), date(2024, time.July, 10, 15, 0)},
		{"midnight", date(2024, time.July, 9, 0, 0), date(2024, time.July, 9, 15, 0)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextDailyReset(tc.now); !got.Equal(tc.want) {
				t.Errorf("NextDailyReset(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestNextWeeklyReset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"midweek", date(2024, time.July, 10, 12, 0), date(2024, time.July, 16, 8, 0)},
		{"tuesday before reset", date(2024, time.July, 9, 7, 0), date(2024, time.July, 9, 8, 0)},
		{"tuesday at reset", date(2024, time.July, 9, 8, 0), date(2024, time.July, 16, 8, 0)},
		{"tuesday after reset", date(2024, time.July, 9, 9, 0), date(2024, time.July, 16, 8, 0)},
		{"monday", date(2024, time.July, 8, 23, 0), date(2024, time.July, 9, 8, 0)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextWeeklyReset(tc.now); !got.Equal(tc.want) {
				t.Errorf("NextWeeklyReset(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}

func TestNextCactpotDraw(t *testing.T) {
	t.Parallel()

	// 2024-07-06 is a Saturday, 2024-07-07 a Sunday.
	tests := []struct {
		name   string
		region Region
		now    time.Time
		want   time.Time
	}{
		{"OCE midweek", RegionOCE, date(2024, time.July, 3, 0, 0), date(2024, time.July, 6, 9, 0)},
		{"JP saturday morning", RegionJP, date(2024, time.July, 6, 10, 0), date(2024, time.July, 6, 11, 0)},
		{"JP saturday after draw", RegionJP, date(2024, time.July, 6, 12, 0), date(2024, time.July, 13, 11, 0)},
		{"EU saturday evening", RegionEU, date(2024, time.July, 6, 18, 0), date(2024, time.July, 6, 19, 0)},
		{"NA saturday", RegionNA, date(2024, time.July, 6, 12, 0), date(2024, time.July, 7, 1, 0)},
		{"NA sunday after draw", RegionNA, date(2024, time.July, 7, 2, 0), date(2024, time.July, 14, 1, 0)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextCactpotDraw(tc.region, tc.now); !got.Equal(tc.want) {
				t.Errorf("NextCactpotDraw(%s, %s) = %s, want %s", tc.region, tc.now, got, tc.want)
			}
		})
	}
}

func TestFashionReportWeek(t *testing.T) {
	t.Parallel()

	tests := []struct {
		now  time.Time
		want int
	}{
		{FashionReportStart, 0},
		{FashionReportStart.Add(6*24*time.Hour + 23*time.Hour), 0},
		{FashionReportStart.Add(7 * 24 * time.Hour), 1},
		{FashionReportStart.Add(70 * 24 * time.Hour), 10},
	}
	for _, tc := range tests {
		if got := FashionReportWeek(tc.now); got != tc.want {
			t.Errorf("FashionReportWeek(%s) = %d, want %d", tc.now, got, tc.want)
		}
	}
}

func TestFashionReportOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"friday before judging", date(2024, time.July, 12, 7, 59), false},
		{"friday at open", date(2024, time.July, 12, 8, 0), true},
		{"saturday", date(2024, time.July, 13, 3, 0), true},
		{"monday", date(2024, time.July, 15, 23, 59), true},
		{"tuesday before close", date(2024, time.July, 16, 7, 59), true},
		{"tuesday at close", date(2024, time.July, 16, 8, 0), false},
		{"wednesday", date(2024, time.July, 17, 12, 0), false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := FashionReportOpen(tc.now); got != tc.want {
				t.Errorf("FashionReportOpen(%s) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestNextFashionReportJudging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"midweek", date(2024, time.July, 10, 0, 0), date(2024, time.July, 12, 8, 0)},
		{"friday before open", date(2024, time.July, 12, 7, 0), date(2024, time.July, 12, 8, 0)},
		{"friday after open", date(2024, time.July, 12, 9, 0), date(2024, time.July, 19, 8, 0)},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextFashionReportJudging(tc.now); !got.Equal(tc.want) {
				t.Errorf("NextFashionReportJudging(%s) = %s, want %s", tc.now, got, tc.want)
			}
		})
	}
}
