package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xivherald/internal/eventbus"
	"xivherald/internal/gametime"
	"xivherald/internal/schedule"
	"xivherald/internal/subscription"
	"xivherald/internal/transport"
	logx "xivherald/pkg/logx"
)

func (e *Engine) buildPayload(ctx context.Context, kind subscription.Kind, fireAt time.Time) transport.Payload {
	switch kind {
	case subscription.KindDailyReset:
		return transport.Payload{
			Kind:  kind.String(),
			Title: "Daily Reset",
			Body:  "Daily duties, beast tribe allowances and hunt marks have reset.",
			When:  fireAt,
		}
	case subscription.KindWeeklyReset:
		return transport.Payload{
			Kind:  kind.String(),
			Title: "Weekly Reset",
			Body:  "Weekly capped activities, raid lockouts and challenge logs have reset.",
			When:  fireAt,
		}
	case subscription.KindFashionReport:
		return e.fashionReportPayload(ctx, fireAt)
	case subscription.KindOceanFishing:
		return e.voyagePayload(fireAt)
	case subscription.KindCactpotNA, subscription.KindCactpotEU,
		subscription.KindCactpotJP, subscription.KindCactpotOCE:
		return cactpotPayload(kind, fireAt)
	case subscription.KindGate:
		return gatePayload(fireAt)
	default:
		return transport.Payload{Kind: kind.String(), When: fireAt}
	}
}

// fashionReportPayload resolves the week's details post, retrying while the
// community post trickles in. After the attempts are spent it falls back to a
// bare "judging is open" notification rather than staying silent.
func (e *Engine) fashionReportPayload(ctx context.Context, fireAt time.Time) transport.Payload {
	week := gametime.FashionReportWeek(fireAt)
	fallback := transport.Payload{
		Kind:  subscription.KindFashionReport.String(),
		Title: fmt.Sprintf("Fashion Report — Week %d", week),
		Body:  "Judging is open. This week's details have not been published yet.",
		When:  fireAt,
	}
	if e.fetcher == nil {
		return fallback
	}

	for attempt := 1; attempt <= e.cfg.ReportAttempts; attempt++ {
		rep, ok, err := e.fetcher.Latest(ctx, fireAt)
		if err != nil {
			e.log.Warn("fashion report fetch failed",
				logx.Int("attempt", attempt), logx.Err(err))
		} else if ok {
			return transport.Payload{
				Kind:     subscription.KindFashionReport.String(),
				Title:    rep.Title,
				Body:     fmt.Sprintf("Judging is open through Tuesday 08:00 UTC (week %d).", rep.Week),
				URL:      rep.URL,
				ImageURL: rep.ImageURL,
				When:     fireAt,
			}
		}

		if attempt == e.cfg.ReportAttempts {
			break
		}
		if err := sleepUntil(ctx, e.cfg.ReportBackoff); err != nil {
			return fallback
		}
	}

	if e.bus != nil {
		e.bus.Publish(eventbus.Event{
			Type: eventbus.TypeReportPending,
			Data: struct{ Week int }{Week: week},
		})
	}
	return fallback
}

func (e *Engine) voyagePayload(fireAt time.Time) transport.Payload {
	indigo := e.calendar.SlotFor(schedule.RouteIndigo, fireAt)
	ruby := e.calendar.SlotFor(schedule.RouteRuby, fireAt)

	var b strings.Builder
	for _, v := range []schedule.Voyage{indigo, ruby} {
		fmt.Fprintf(&b, "%s route: %s\n", v.Route, v.Details())
		for _, st := range v.Stops() {
			fmt.Fprintf(&b, "  %s (%s)\n", st.Stop, st.Time)
		}
	}
	b.WriteString("Registration closes 15 minutes after the window opens.")

	return transport.Payload{
		Kind:  subscription.KindOceanFishing.String(),
		Title: "Ocean Fishing Voyage",
		Body:  b.String(),
		When:  fireAt,
	}
}

func cactpotPayload(kind subscription.Kind, fireAt time.Time) transport.Payload {
	var region gametime.Region
	switch kind {
	case subscription.KindCactpotEU:
		region = gametime.RegionEU
	case subscription.KindCactpotJP:
		region = gametime.RegionJP
	case subscription.KindCactpotOCE:
		region = gametime.RegionOCE
	default:
		region = gametime.RegionNA
	}
	return transport.Payload{
		Kind:  kind.String(),
		Title: fmt.Sprintf("Jumbo Cactpot Draw (%s)", region),
		Body:  "The weekly jumbo cactpot numbers are being drawn. Buy next week's ticket!",
		When:  fireAt,
	}
}

func gatePayload(fireAt time.Time) transport.Payload {
	spawn := schedule.SpawnAt(fireAt)

	names := make([]string, 0, len(spawn.Candidates))
	for _, g := range spawn.Candidates {
		if g == schedule.GateLeapOfFaith {
			names = append(names, fmt.Sprintf("%s (%s)", g, schedule.LeapOfFaithFor(spawn.At.Minute())))
			continue
		}
		names = append(names, g.String())
	}

	return transport.Payload{
		Kind:  subscription.KindGate.String(),
		Title: "GATE opening",
		Body:  "One of: " + strings.Join(names, ", "),
		When:  spawn.At,
	}
}
