// Package dispatch fans a rendered notification out to every subscribed
// destination.
//
// Delivery is all-settled: each destination gets exactly one send attempt per
// fire, failures are isolated per destination, and the fanout always returns
// a full result set. Destinations whose delivery target turns out to be gone
// are deregistered so the next fire no longer pays for them.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"xivherald/internal/eventbus"
	"xivherald/internal/subscription"
	"xivherald/internal/transport"
	logx "xivherald/pkg/logx"
)

type Config struct {
	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
	// RatePerSecond caps outgoing sends across the whole fanout.
	RatePerSecond float64
	// Burst is the limiter's burst size.
	Burst int
}

func (c *Config) normalize() {
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 25
	}
	if c.Burst <= 0 {
		c.Burst = 5
	}
}

// Outcome classifies one destination's delivery attempt.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeFailed
	OutcomeSkipped
	OutcomeRemoved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Result is one destination's settled outcome.
type Result struct {
	GuildID int64
	Outcome Outcome
	Err     error
}

// SentEvent is the eventbus payload for a settled fanout.
type SentEvent struct {
	Kind    string
	Sent    int
	Failed  int
	Removed int
}

// registry is the slice of the subscription registry the fanout needs.
type registry interface {
	ListForKind(ctx context.Context, kind subscription.Kind) ([]subscription.DestinationConfig, error)
	ResolveEndpoint(ctx context.Context, cfg subscription.DestinationConfig) (transport.Endpoint, error)
	Delete(ctx context.Context, guildID int64) (bool, error)
}

type Fanout struct {
	cfg    Config
	reg    registry
	sender transport.Sender
	limit  *rate.Limiter
	log    logx.Logger
	bus    eventbus.Bus
}

func NewFanout(cfg Config, reg *subscription.Registry, sender transport.Sender, log logx.Logger, bus eventbus.Bus) *Fanout {
	return newFanout(cfg, reg, sender, log, bus)
}

func newFanout(cfg Config, reg registry, sender transport.Sender, log logx.Logger, bus eventbus.Bus) *Fanout {
	cfg.normalize()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Fanout{
		cfg:    cfg,
		reg:    reg,
		sender: sender,
		limit:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		log:    log,
		bus:    bus,
	}
}

// ApplyRate retunes the shared send limiter, used by config hot reload.
func (f *Fanout) ApplyRate(perSecond float64, burst int) {
	if perSecond > 0 {
		f.limit.SetLimit(rate.Limit(perSecond))
	}
	if burst > 0 {
		f.limit.SetBurst(burst)
	}
}

// Dispatch delivers the payload to every destination subscribed to kind.
//
// One result per destination, always. An error return means the destination
// set itself could not be loaded; partial delivery failures never surface as
// an error.
func (f *Fanout) Dispatch(ctx context.Context, kind subscription.Kind, p transport.Payload) ([]Result, error) {
	dests, err := f.reg.ListForKind(ctx, kind)
	if err != nil {
		return nil, err
	}
	if len(dests) == 0 {
		return nil, nil
	}
	if p.Kind == "" {
		p.Kind = kind.String()
	}

	results := make([]Result, len(dests))
	var wg sync.WaitGroup
	for i, dest := range dests {
		wg.Add(1)
		go func(i int, dest subscription.DestinationConfig) {
			defer wg.Done()
			results[i] = f.deliver(ctx, dest, p)
		}(i, dest)
	}
	wg.Wait()

	ev := SentEvent{Kind: p.Kind}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSent:
			ev.Sent++
		case OutcomeFailed:
			ev.Failed++
		case OutcomeRemoved:
			ev.Removed++
		}
	}
	f.log.Info("fanout settled",
		logx.String("kind", p.Kind),
		logx.Int("destinations", len(dests)),
		logx.Int("sent", ev.Sent),
		logx.Int("failed", ev.Failed),
		logx.Int("removed", ev.Removed))
	if f.bus != nil {
		f.bus.Publish(eventbus.Event{Type: eventbus.TypeDispatchSent, Data: ev})
	}
	return results, nil
}

func (f *Fanout) deliver(ctx context.Context, dest subscription.DestinationConfig, p transport.Payload) Result {
	ep, err := f.reg.ResolveEndpoint(ctx, dest)
	if err != nil {
		if errors.Is(err, subscription.ErrMisconfigured) {
			return f.remove(ctx, dest.GuildID, err)
		}
		f.log.Warn("endpoint resolution failed",
			logx.Int64("guild", dest.GuildID), logx.Err(err))
		f.publishFailure(dest.GuildID, p.Kind, err)
		return Result{GuildID: dest.GuildID, Outcome: OutcomeFailed, Err: err}
	}

	if err := f.limit.Wait(ctx); err != nil {
		if f.bus != nil {
			f.bus.Publish(eventbus.Event{
				Type: eventbus.TypeDispatchSkipped,
				Data: struct {
					GuildID int64
					Kind    string
				}{GuildID: dest.GuildID, Kind: p.Kind},
			})
		}
		return Result{GuildID: dest.GuildID, Outcome: OutcomeSkipped, Err: err}
	}

	sendCtx, cancel := context.WithTimeout(ctx, f.cfg.SendTimeout)
	err = f.sender.Send(sendCtx, ep, p, dest.ThreadID)
	cancel()
	switch {
	case err == nil:
		return Result{GuildID: dest.GuildID, Outcome: OutcomeSent}
	case errors.Is(err, transport.ErrEndpointGone):
		// The remote side deleted the webhook; drop the subscription so
		// future fires stop attempting it.
		return f.remove(ctx, dest.GuildID, err)
	default:
		f.log.Warn("delivery failed",
			logx.Int64("guild", dest.GuildID),
			logx.String("kind", p.Kind),
			logx.Err(err))
		f.publishFailure(dest.GuildID, p.Kind, err)
		return Result{GuildID: dest.GuildID, Outcome: OutcomeFailed, Err: err}
	}
}

func (f *Fanout) remove(ctx context.Context, guildID int64, cause error) Result {
	if _, derr := f.reg.Delete(ctx, guildID); derr != nil {
		f.log.Error("deregistering dead destination failed",
			logx.Int64("guild", guildID), logx.Err(derr))
		return Result{GuildID: guildID, Outcome: OutcomeFailed, Err: derr}
	}
	f.log.Info("destination deregistered",
		logx.Int64("guild", guildID), logx.Err(cause))
	return Result{GuildID: guildID, Outcome: OutcomeRemoved, Err: cause}
}

func (f *Fanout) publishFailure(guildID int64, kind string, err error) {
	if f.bus == nil {
		return
	}
	f.bus.Publish(eventbus.Event{
		Type: eventbus.TypeDispatchFailed,
		Data: struct {
			GuildID int64
			Kind    string
			Err     string
		}{GuildID: guildID, Kind: kind, Err: err.Error()},
	})
}
