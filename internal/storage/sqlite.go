package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "xivherald/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) GetSubscription(ctx context.Context, guildID int64) (SubscriptionRecord, bool, error) {
	if s == nil || s.db == nil {
		return SubscriptionRecord{}, false, ErrDisabled
	}
	var rec SubscriptionRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT guild_id, channel_id, thread_id, subscriptions, webhook_id, webhook_url
		 FROM event_subscriptions WHERE guild_id = ?`, guildID,
	).Scan(&rec.GuildID, &rec.ChannelID, &rec.ThreadID, &rec.Flags, &rec.WebhookID, &rec.WebhookURL)
	if errors.Is(err, sql.ErrNoRows) {
		return SubscriptionRecord{}, false, nil
	}
	if err != nil {
		return SubscriptionRecord{}, false, err
	}
	return rec, true, nil
}

func (s *sqliteStore) UpsertSubscription(ctx context.Context, rec SubscriptionRecord) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event_subscriptions(guild_id, channel_id, thread_id, subscriptions, webhook_id, webhook_url, updated_at)
		 VALUES(?,?,?,?,?,?,?)
		 ON CONFLICT(guild_id) DO UPDATE SET
		     channel_id=excluded.channel_id,
		     thread_id=excluded.thread_id,
		     subscriptions=excluded.subscriptions,
		     webhook_id=excluded.webhook_id,
		     webhook_url=excluded.webhook_url,
		     updated_at=excluded.updated_at`,
		rec.GuildID, rec.ChannelID, rec.ThreadID, rec.Flags, rec.WebhookID, rec.WebhookURL,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) SetWebhook(ctx context.Context, guildID int64, webhookID, webhookURL string) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE event_subscriptions SET webhook_id = ?, webhook_url = ?, updated_at = ? WHERE guild_id = ?`,
		webhookID, webhookURL, time.Now().UTC().Format(time.RFC3339Nano), guildID,
	)
	return err
}

func (s *sqliteStore) DeleteSubscription(ctx context.Context, guildID int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrDisabled
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM event_subscriptions WHERE guild_id = ?`, guildID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteStore) ListSubscriptions(ctx context.Context) ([]SubscriptionRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT guild_id, channel_id, thread_id, subscriptions, webhook_id, webhook_url
		 FROM event_subscriptions ORDER BY guild_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubscriptionRecord
	for rows.Next() {
		var rec SubscriptionRecord
		if err := rows.Scan(&rec.GuildID, &rec.ChannelID, &rec.ThreadID, &rec.Flags, &rec.WebhookID, &rec.WebhookURL); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune removes rows that were lazily created but never subscribed to
// anything and have no webhook to tear down.
func (s *sqliteStore) Prune(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM event_subscriptions
		 WHERE webhook_url = '' AND subscriptions NOT LIKE '%1%'`)
	return err
}
