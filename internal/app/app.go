// Package app wires the herald's components together from a config file and
// owns their lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"xivherald/internal/config"
	"xivherald/internal/dispatch"
	"xivherald/internal/engine"
	"xivherald/internal/eventbus"
	"xivherald/internal/report"
	"xivherald/internal/runtime/supervisor"
	"xivherald/internal/storage"
	"xivherald/internal/subscription"
	"xivherald/internal/transport"
	"xivherald/internal/transport/telegram"
	"xivherald/internal/transport/webhook"
	logx "xivherald/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	bus      eventbus.Bus
	store    storage.Store
	registry *subscription.Registry
	fanout   *dispatch.Fanout
	engine   *engine.Engine

	sup *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("component", "config")))

	a := &App{
		cfgMgr: mgr,
		logSvc: logSvc,
		log:    log,
		bus:    eventbus.New(),
	}
	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, a.log.With(logx.String("component", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	sender, prov, err := buildTransport(cfg.Transport, a.log)
	if err != nil {
		return err
	}

	a.registry = subscription.NewRegistry(store, prov,
		a.log.With(logx.String("component", "registry")), a.bus)

	sendTimeout, err := config.ParseDurationOrDefault("dispatch.send_timeout", cfg.Dispatch.SendTimeout, 10*time.Second)
	if err != nil {
		return err
	}
	a.fanout = dispatch.NewFanout(dispatch.Config{
		SendTimeout:   sendTimeout,
		RatePerSecond: cfg.Dispatch.RatePerSecond,
		Burst:         cfg.Dispatch.Burst,
	}, a.registry, sender, a.log.With(logx.String("component", "dispatch")), a.bus)

	fetcher, err := buildFetcher(cfg.Report, a.log)
	if err != nil {
		return err
	}

	fireGrace, err := config.ParseDurationField("engine.fire_grace", cfg.Engine.FireGrace)
	if err != nil {
		return err
	}
	reportBackoff, err := config.ParseDurationField("engine.report_backoff", cfg.Engine.ReportBackoff)
	if err != nil {
		return err
	}
	a.engine = engine.New(engine.Config{
		FireGrace:      fireGrace,
		ReportAttempts: cfg.Engine.ReportAttempts,
		ReportBackoff:  reportBackoff,
	}, a.registry, a.fanout, fetcher, store,
		a.log.With(logx.String("component", "engine")), a.bus)

	return nil
}

func buildTransport(cfg config.TransportConfig, log logx.Logger) (transport.Sender, transport.Provisioner, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "webhook":
		timeout, err := config.ParseDurationField("transport.webhook.timeout", cfg.Webhook.Timeout)
		if err != nil {
			return nil, nil, err
		}
		c := webhook.New(webhook.Config{
			APIBase:     cfg.Webhook.APIBase,
			Token:       cfg.Webhook.Token,
			WebhookName: cfg.Webhook.WebhookName,
			Timeout:     timeout,
		}, log.With(logx.String("component", "webhook")))
		return c, c, nil
	case "telegram":
		timeout, err := config.ParseDurationField("transport.telegram.timeout", cfg.Telegram.Timeout)
		if err != nil {
			return nil, nil, err
		}
		c, err := telegram.New(telegram.Config{
			Token:   cfg.Telegram.Token,
			Timeout: timeout,
		}, log.With(logx.String("component", "telegram")))
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		return nil, nil, errors.New("unknown transport driver: " + driver)
	}
}

func buildFetcher(cfg config.ReportConfig, log logx.Logger) (report.Fetcher, error) {
	timeout, err := config.ParseDurationField("report.timeout", cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return report.NewKaiyoko(report.KaiyokoConfig{
		SourceURL: cfg.SourceURL,
		Timeout:   timeout,
		UserAgent: cfg.UserAgent,
	}, log.With(logx.String("component", "report"))), nil
}

// Start launches the engine plus the config watcher.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))

	if err := a.engine.Start(a.sup.Context()); err != nil {
		return err
	}

	a.sup.GoRestart("config.watch", a.cfgMgr.Watch)
	a.sup.Go0("config.apply", a.applyLoop)

	a.log.Info("herald started")
	return nil
}

// applyLoop reacts to config reloads. Only hot-swappable settings are
// applied: log level/sinks and the dispatch rate. Everything else needs a
// restart.
func (a *App) applyLoop(ctx context.Context) {
	ch := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok || cfg == nil {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.fanout.ApplyRate(cfg.Dispatch.RatePerSecond, cfg.Dispatch.Burst)
			a.log.Info("config reloaded")
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	if a.engine != nil {
		if err := a.engine.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.log.Info("herald stopped")
	_ = a.logSvc.Close()
	return firstErr
}

// Registry exposes the subscription registry for front-ends built on top of
// the app (command handlers, admin tooling).
func (a *App) Registry() *subscription.Registry { return a.registry }

// Engine exposes loop status for introspection.
func (a *App) Engine() *engine.Engine { return a.engine }
