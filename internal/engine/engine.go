// Package engine turns the deterministic event calendars into timed
// notification fires.
//
// One supervised goroutine per subscribed kind: it computes the kind's next
// occurrence, sleeps until then, re-checks the calendar on wake (a resumed
// host may wake late or early), fires the dispatch fanout, and goes back to
// sleep. Restarting the process recomputes everything; no fire state is
// persisted.
package engine

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"xivherald/internal/dispatch"
	"xivherald/internal/eventbus"
	"xivherald/internal/gametime"
	"xivherald/internal/report"
	"xivherald/internal/runtime/supervisor"
	"xivherald/internal/schedule"
	"xivherald/internal/storage"
	"xivherald/internal/subscription"
	logx "xivherald/pkg/logx"
)

type Config struct {
	// FireGrace is how far past the computed instant a wake may land and
	// still count as on time. Wakes earlier than the instant re-sleep.
	FireGrace time.Duration

	// ReportAttempts and ReportBackoff control the fashion report fetch
	// retry loop before falling back to a placeholder notification.
	ReportAttempts int
	ReportBackoff  time.Duration
}

func (c *Config) normalize() {
	if c.FireGrace <= 0 {
		c.FireGrace = 2 * time.Minute
	}
	if c.ReportAttempts <= 0 {
		c.ReportAttempts = 5
	}
	if c.ReportBackoff <= 0 {
		c.ReportBackoff = 30 * time.Second
	}
}

// State is a kind loop's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateWaiting
	StateFiring
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateFiring:
		return "firing"
	default:
		return "idle"
	}
}

// KindStatus is a point-in-time snapshot of one kind loop.
type KindStatus struct {
	Kind     subscription.Kind
	State    State
	NextFire time.Time
}

// FiredEvent is the eventbus payload published after a kind fires.
type FiredEvent struct {
	Kind subscription.Kind
	At   time.Time
}

type Engine struct {
	cfg      Config
	calendar *schedule.VoyageCalendar
	registry *subscription.Registry
	fanout   *dispatch.Fanout
	fetcher  report.Fetcher
	store    storage.Store
	log      logx.Logger
	bus      eventbus.Bus

	sup  *supervisor.Supervisor
	cron *cron.Cron

	// now is swapped in tests.
	now func() time.Time

	status *statusBoard
}

func New(cfg Config, registry *subscription.Registry, fanout *dispatch.Fanout, fetcher report.Fetcher, store storage.Store, log logx.Logger, bus eventbus.Bus) *Engine {
	cfg.normalize()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		cfg:      cfg,
		calendar: schedule.NewVoyageCalendar(),
		registry: registry,
		fanout:   fanout,
		fetcher:  fetcher,
		store:    store,
		log:      log,
		bus:      bus,
		now:      time.Now,
		status:   newStatusBoard(),
	}
}

// Start launches one loop per kind plus the maintenance cron. It returns
// immediately; Stop tears everything down.
func (e *Engine) Start(ctx context.Context) error {
	e.sup = supervisor.New(ctx, supervisor.WithLogger(e.log))

	for _, kind := range subscription.Kinds() {
		kind := kind
		e.sup.GoRestart("engine."+kind.String(), func(ctx context.Context) error {
			return e.runKind(ctx, kind)
		}, supervisor.WithRestartBackoff(time.Second, time.Minute))
	}

	e.cron = cron.New(cron.WithLocation(time.UTC))
	// Judging opens Friday 08:00 UTC; drop cached registry reads so webhook
	// state provisioned during the week is re-read before the weekend burst.
	if _, err := e.cron.AddFunc("0 8 * * 5", func() {
		n := e.registry.InvalidateAll()
		e.log.Debug("weekly registry cache sweep", logx.Int("dropped", n))
	}); err != nil {
		return err
	}
	if _, err := e.cron.AddFunc("30 15 * * *", func() {
		if err := e.store.Prune(context.Background()); err != nil {
			e.log.Warn("storage prune failed", logx.Err(err))
		}
	}); err != nil {
		return err
	}
	e.cron.Start()

	e.log.Info("engine started", logx.Int("kinds", len(subscription.Kinds())))
	return nil
}

// Stop cancels the loops and waits for them, bounded by ctx.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cron != nil {
		cronCtx := e.cron.Stop()
		select {
		case <-cronCtx.Done():
		case <-ctx.Done():
		}
	}
	if e.sup == nil {
		return nil
	}
	return e.sup.Stop(ctx)
}

// Status snapshots every kind loop.
func (e *Engine) Status() []KindStatus { return e.status.snapshot() }

// runKind is one kind's sleep/fire loop.
func (e *Engine) runKind(ctx context.Context, kind subscription.Kind) error {
	for {
		now := e.now()
		fireAt := e.nextFire(kind, now)
		e.status.set(kind, StateWaiting, fireAt)
		e.log.Debug("waiting",
			logx.String("kind", kind.String()),
			logx.Time("fire_at", fireAt))

		if err := sleepUntil(ctx, fireAt.Sub(now)); err != nil {
			e.status.set(kind, StateIdle, time.Time{})
			return err
		}

		// Re-check against the calendar: the timer may have fired early
		// (clock step) or hopelessly late (suspended host). Early wakes
		// re-sleep; a wake past the grace window skips the stale fire.
		now = e.now()
		if now.Before(fireAt) {
			continue
		}
		if now.Sub(fireAt) > e.cfg.FireGrace {
			e.log.Warn("missed fire window, skipping",
				logx.String("kind", kind.String()),
				logx.Time("fire_at", fireAt),
				logx.Duration("late_by", now.Sub(fireAt)))
			continue
		}

		e.status.set(kind, StateFiring, fireAt)
		e.fire(ctx, kind, fireAt)
		if e.bus != nil {
			e.bus.Publish(eventbus.Event{
				Type: eventbus.TypeKindFired,
				Data: FiredEvent{Kind: kind, At: fireAt},
			})
		}

		// Step past the instant just fired so nextFire can't return it again.
		if err := sleepUntil(ctx, time.Minute); err != nil {
			e.status.set(kind, StateIdle, time.Time{})
			return err
		}
	}
}

// nextFire computes the kind's next occurrence strictly relevant at now.
func (e *Engine) nextFire(kind subscription.Kind, now time.Time) time.Time {
	switch kind {
	case subscription.KindDailyReset:
		return gametime.NextDailyReset(now)
	case subscription.KindWeeklyReset:
		return gametime.NextWeeklyReset(now)
	case subscription.KindFashionReport:
		return gametime.NextFashionReportJudging(now)
	case subscription.KindOceanFishing:
		return e.nextVoyageStart(now)
	case subscription.KindCactpotNA:
		return gametime.NextCactpotDraw(gametime.RegionNA, now)
	case subscription.KindCactpotEU:
		return gametime.NextCactpotDraw(gametime.RegionEU, now)
	case subscription.KindCactpotJP:
		return gametime.NextCactpotDraw(gametime.RegionJP, now)
	case subscription.KindCactpotOCE:
		return gametime.NextCactpotDraw(gametime.RegionOCE, now)
	case subscription.KindGate:
		return schedule.NextGate(now).At
	default:
		// Unknown kinds park for a day rather than spin.
		return now.Add(24 * time.Hour)
	}
}

// nextVoyageStart returns the next registration window opening after now.
func (e *Engine) nextVoyageStart(now time.Time) time.Time {
	for _, v := range e.calendar.Upcoming(schedule.RouteIndigo, now, 2) {
		if v.StartTime.After(now) {
			return v.StartTime
		}
	}
	// Unreachable: two consecutive slots always straddle any instant.
	return now.Add(2 * time.Hour)
}

func (e *Engine) fire(ctx context.Context, kind subscription.Kind, fireAt time.Time) {
	p := e.buildPayload(ctx, kind, fireAt)
	results, err := e.fanout.Dispatch(ctx, kind, p)
	if err != nil {
		e.log.Error("dispatch failed",
			logx.String("kind", kind.String()), logx.Err(err))
		return
	}
	e.log.Info("fired",
		logx.String("kind", kind.String()),
		logx.Time("at", fireAt),
		logx.Int("destinations", len(results)))
}

func sleepUntil(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
