package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"xivherald/internal/report"
	"xivherald/internal/subscription"
	logx "xivherald/pkg/logx"
)

func newTestEngine(fetcher report.Fetcher) *Engine {
	return New(Config{
		ReportAttempts: 3,
		ReportBackoff:  time.Millisecond,
	}, nil, nil, fetcher, nil, logx.Nop(), nil)
}

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

// anchor is 2020-06-28T00:00:00Z, a voyage slot boundary.
var anchor = time.Unix(1593302400, 0).UTC()

func TestNextFire(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)

	tests := []struct {
		name string
		kind subscription.Kind
		now  time.Time
		want time.Time
	}{
		{"daily", subscription.KindDailyReset, date(2024, time.July, 9, 14, 0), date(2024, time.July, 9, 15, 0)},
		{"weekly", subscription.KindWeeklyReset, date(2024, time.July, 10, 12, 0), date(2024, time.July, 16, 8, 0)},
		{"fashion report", subscription.KindFashionReport, date(2024, time.July, 10, 12, 0), date(2024, time.July, 12, 8, 0)},
		{"gate", subscription.KindGate, date(2024, time.July, 9, 14, 5), date(2024, time.July, 9, 14, 20)},
		{"cactpot NA", subscription.KindCactpotNA, date(2024, time.July, 3, 0, 0), date(2024, time.July, 7, 1, 0)},
		{"cactpot OCE", subscription.KindCactpotOCE, date(2024, time.July, 3, 0, 0), date(2024, time.July, 6, 9, 0)},
		{"voyage on boundary", subscription.KindOceanFishing, anchor, anchor.Add(2 * time.Hour)},
		{"voyage just before boundary", subscription.KindOceanFishing, anchor.Add(-time.Second), anchor},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := e.nextFire(tc.kind, tc.now)
			if !got.Equal(tc.want) {
				t.Errorf("nextFire(%s, %s) = %s, want %s", tc.kind, tc.now, got, tc.want)
			}
			if !got.After(tc.now) {
				t.Errorf("nextFire(%s, %s) = %s is not in the future", tc.kind, tc.now, got)
			}
		})
	}
}

type fakeFetcher struct {
	calls   int
	results []func() (report.Report, bool, error)
}

func (f *fakeFetcher) Latest(context.Context, time.Time) (report.Report, bool, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i]()
}

func TestFashionReportPayloadPublished(t *testing.T) {
	t.Parallel()

	rep := report.Report{Week: 342, Title: "Fashion Report - Full Details - For Week of 8/15/2025 (Week 342)", URL: "https://blog/5555", ImageURL: "https://img/342.png"}
	f := &fakeFetcher{results: []func() (report.Report, bool, error){
		func() (report.Report, bool, error) { return rep, true, nil },
	}}
	e := newTestEngine(f)

	p := e.fashionReportPayload(context.Background(), date(2025, time.August, 15, 8, 0))
	if p.Title != rep.Title || p.URL != rep.URL || p.ImageURL != rep.ImageURL {
		t.Errorf("payload = %+v, want report fields from %+v", p, rep)
	}
	if f.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", f.calls)
	}
}

func TestFashionReportPayloadRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	rep := report.Report{Week: 342, Title: "details", URL: "https://blog/5555"}
	f := &fakeFetcher{results: []func() (report.Report, bool, error){
		func() (report.Report, bool, error) { return report.Report{}, false, errors.New("503") },
		func() (report.Report, bool, error) { return report.Report{Week: 341}, false, nil },
		func() (report.Report, bool, error) { return rep, true, nil },
	}}
	e := newTestEngine(f)

	p := e.fashionReportPayload(context.Background(), date(2025, time.August, 15, 8, 0))
	if p.URL != rep.URL {
		t.Errorf("payload URL = %q, want %q", p.URL, rep.URL)
	}
	if f.calls != 3 {
		t.Errorf("fetcher called %d times, want 3", f.calls)
	}
}

func TestFashionReportPayloadFallsBack(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{results: []func() (report.Report, bool, error){
		func() (report.Report, bool, error) { return report.Report{Week: 341}, false, nil },
	}}
	e := newTestEngine(f)

	fireAt := date(2025, time.August, 15, 8, 0)
	p := e.fashionReportPayload(context.Background(), fireAt)
	if !strings.Contains(p.Body, "not been published") {
		t.Errorf("fallback body = %q", p.Body)
	}
	if p.URL != "" {
		t.Errorf("fallback carries stale URL %q", p.URL)
	}
	if f.calls != e.cfg.ReportAttempts {
		t.Errorf("fetcher called %d times, want %d", f.calls, e.cfg.ReportAttempts)
	}
}

func TestFashionReportPayloadNoFetcher(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)

	p := e.fashionReportPayload(context.Background(), date(2025, time.August, 15, 8, 0))
	if p.Title == "" || !strings.Contains(p.Body, "not been published") {
		t.Errorf("nil fetcher payload = %+v", p)
	}
}

func TestVoyagePayload(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)

	p := e.voyagePayload(anchor)
	for _, want := range []string{"Indigo route", "Ruby route", "The Bloodbrine Sea", "The One River", "Registration closes"} {
		if !strings.Contains(p.Body, want) {
			t.Errorf("voyage body missing %q:\n%s", want, p.Body)
		}
	}
	if !p.When.Equal(anchor) {
		t.Errorf("When = %s, want %s", p.When, anchor)
	}
}

func TestGatePayload(t *testing.T) {
	t.Parallel()

	p := gatePayload(date(2024, time.July, 9, 14, 20))
	if !strings.Contains(p.Body, "Leap of Faith (Belah'dia)") {
		t.Errorf("gate body missing course variant: %q", p.Body)
	}
	if !strings.Contains(p.Body, "The Slice Is Right") {
		t.Errorf("gate body missing candidate: %q", p.Body)
	}
}

func TestCactpotPayloadNamesRegion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind subscription.Kind
		want string
	}{
		{subscription.KindCactpotNA, "NA"},
		{subscription.KindCactpotEU, "EU"},
		{subscription.KindCactpotJP, "JP"},
		{subscription.KindCactpotOCE, "OCE"},
	}
	for _, tc := range tests {
		p := cactpotPayload(tc.kind, anchor)
		if !strings.Contains(p.Title, tc.want) {
			t.Errorf("%s title = %q, want region %s", tc.kind, p.Title, tc.want)
		}
	}
}

func TestStatusBoard(t *testing.T) {
	t.Parallel()

	b := newStatusBoard()
	b.set(subscription.KindGate, StateWaiting, anchor)
	b.set(subscription.KindDailyReset, StateFiring, anchor)
	b.set(subscription.KindGate, StateFiring, anchor.Add(time.Hour))

	snap := b.snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d entries, want 2", len(snap))
	}
	// Sorted by kind bit; daily reset is the lowest bit.
	if snap[0].Kind != subscription.KindDailyReset {
		t.Errorf("first entry = %s, want daily reset", snap[0].Kind)
	}
	if snap[1].State != StateFiring || !snap[1].NextFire.Equal(anchor.Add(time.Hour)) {
		t.Errorf("gate entry = %+v, want updated firing state", snap[1])
	}
}
