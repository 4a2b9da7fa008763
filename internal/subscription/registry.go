package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"xivherald/internal/cache"
	"xivherald/internal/eventbus"
	"xivherald/internal/storage"
	"xivherald/internal/transport"
	logx "xivherald/pkg/logx"
)

// ErrMisconfigured signals that a destination's delivery target is gone:
// an endpoint exists (or should) but the channel behind it is unusable.
// The dispatch layer recovers by deleting the subscription.
var ErrMisconfigured = errors.New("destination misconfigured")

const fnConfig = "subscription.config"

// RemovedEvent is the eventbus payload published when a subscription is
// deleted.
type RemovedEvent struct {
	GuildID int64
	Reason  string
}

// Registry owns DestinationConfig records: durable rows behind a
// read-through cache. Other components only see immutable snapshots.
//
// Every mutation is a single write-then-invalidate unit, so a guild's next
// read observes its prior write (per-entity read-after-write; no cross-guild
// ordering is promised or needed).
type Registry struct {
	store storage.Store
	prov  transport.Provisioner
	cache *cache.Cache[DestinationConfig]
	log   logx.Logger
	bus   eventbus.Bus

	// provision dedups concurrent endpoint creation per guild. Two kind
	// loops firing at the same instant must end up sharing one endpoint.
	provision singleflight.Group
}

func NewRegistry(store storage.Store, prov transport.Provisioner, log logx.Logger, bus eventbus.Bus) *Registry {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registry{
		store: store,
		prov:  prov,
		cache: cache.New[DestinationConfig](),
		log:   log,
		bus:   bus,
	}
}

// Get returns the guild's config, creating a zero-value one (not persisted)
// if the guild has never subscribed. Reads are cached until the next write
// for the same guild.
func (r *Registry) Get(ctx context.Context, guildID int64) (DestinationConfig, error) {
	key := cache.Key(fnConfig, guildID)
	return r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (DestinationConfig, error) {
		rec, ok, err := r.store.GetSubscription(ctx, guildID)
		if err != nil {
			return DestinationConfig{}, err
		}
		if !ok {
			return DestinationConfig{GuildID: guildID}, nil
		}
		return configFromRecord(rec)
	})
}

// SetSubscriptions writes the guild's flags and delivery target. Invalid
// flag values are rejected here, at the write boundary. The cached read for
// the guild is invalidated before returning.
func (r *Registry) SetSubscriptions(ctx context.Context, guildID int64, flags Flags, channelID, threadID int64) error {
	if !flags.Valid() {
		return fmt.Errorf("%w: 0x%x", ErrInvalidFlags, uint16(flags))
	}

	// Preserve an existing endpoint across flag/channel updates. If the
	// channel moves, the old endpoint is dropped and re-provisioned lazily.
	cur, err := r.Get(ctx, guildID)
	if err != nil {
		return err
	}
	next := DestinationConfig{
		GuildID:   guildID,
		ChannelID: channelID,
		ThreadID:  threadID,
		Flags:     flags,
	}
	if cur.ChannelID == channelID {
		next.Endpoint = cur.Endpoint
	}

	if err := r.store.UpsertSubscription(ctx, next.record()); err != nil {
		return err
	}
	r.cache.Invalidate(cache.Key(fnConfig, guildID))
	r.log.Debug("subscriptions written",
		logx.Int64("guild", guildID),
		logx.String("flags", flags.BitString()),
		logx.Int64("channel", channelID))
	return nil
}

// Delete removes the guild's subscription row and cached read. It reports
// whether a row existed.
func (r *Registry) Delete(ctx context.Context, guildID int64) (bool, error) {
	ok, err := r.store.DeleteSubscription(ctx, guildID)
	r.cache.Invalidate(cache.Key(fnConfig, guildID))
	if err != nil {
		return false, err
	}
	if ok && r.bus != nil {
		r.bus.Publish(eventbus.Event{
			Type: eventbus.TypeSubscriptionRemoved,
			Data: RemovedEvent{GuildID: guildID, Reason: "deleted"},
		})
	}
	return ok, nil
}

// ListForKind returns configs of every guild subscribed to the kind.
func (r *Registry) ListForKind(ctx context.Context, kind Kind) ([]DestinationConfig, error) {
	recs, err := r.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DestinationConfig, 0, len(recs))
	for _, rec := range recs {
		cfg, err := configFromRecord(rec)
		if err != nil {
			// A malformed row must not starve every other guild.
			r.log.Warn("skipping malformed subscription row",
				logx.Int64("guild", rec.GuildID), logx.Err(err))
			continue
		}
		if cfg.Flags.Has(kind) {
			out = append(out, cfg)
		}
	}
	return out, nil
}

// ResolveEndpoint returns the destination's live endpoint, provisioning one
// idempotently if absent. Concurrent resolvers for the same guild share a
// single create, so a guild never ends up with an orphaned second endpoint.
//
// It distinguishes "never created" (create it now) from "target gone"
// (ErrMisconfigured, the self-healing signal). It never silently drops.
func (r *Registry) ResolveEndpoint(ctx context.Context, cfg DestinationConfig) (transport.Endpoint, error) {
	if cfg.HasEndpoint() {
		return cfg.Endpoint, nil
	}
	if cfg.ChannelID == 0 {
		return transport.Endpoint{}, fmt.Errorf("%w: guild %d has no delivery channel", ErrMisconfigured, cfg.GuildID)
	}

	v, err, _ := r.provision.Do(strconv.FormatInt(cfg.GuildID, 10), func() (any, error) {
		// Re-read inside the flight: the caller's snapshot may be stale and
		// a concurrent resolver may have provisioned while we waited.
		cur, err := r.Get(ctx, cfg.GuildID)
		if err != nil {
			return nil, err
		}
		if cur.HasEndpoint() {
			return cur.Endpoint, nil
		}

		ep, err := r.prov.CreateEndpoint(ctx, cfg.ChannelID)
		if err != nil {
			if errors.Is(err, transport.ErrChannelGone) {
				return nil, fmt.Errorf("%w: channel %d gone: %w", ErrMisconfigured, cfg.ChannelID, err)
			}
			return nil, err
		}

		if err := r.store.SetWebhook(ctx, cfg.GuildID, ep.ID, ep.URL); err != nil {
			return nil, err
		}
		r.cache.Invalidate(cache.Key(fnConfig, cfg.GuildID))
		r.log.Info("endpoint provisioned",
			logx.Int64("guild", cfg.GuildID), logx.Int64("channel", cfg.ChannelID))
		return ep, nil
	})
	if err != nil {
		return transport.Endpoint{}, err
	}
	return v.(transport.Endpoint), nil
}

// InvalidateAll drops every cached read. Used by the maintenance sweep.
func (r *Registry) InvalidateAll() int {
	return r.cache.InvalidateFunc(fnConfig)
}
