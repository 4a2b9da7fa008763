package storage

import (
	"context"
	"errors"
	"strings"

	logx "xivherald/pkg/logx"
)

// Store is the minimal persistence API used by the subscription registry.
type Store interface {
	GetSubscription(ctx context.Context, guildID int64) (SubscriptionRecord, bool, error)
	UpsertSubscription(ctx context.Context, rec SubscriptionRecord) error
	SetWebhook(ctx context.Context, guildID int64, webhookID, webhookURL string) error
	DeleteSubscription(ctx context.Context, guildID int64) (bool, error)
	ListSubscriptions(ctx context.Context) ([]SubscriptionRecord, error)
	Prune(ctx context.Context) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
