package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// memStore is an in-process backend with the same upsert semantics as the
// sqlite store. Used by tests and throwaway runs.
type memStore struct {
	mu   sync.Mutex
	rows map[int64]SubscriptionRecord
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store {
	return &memStore{rows: map[int64]SubscriptionRecord{}}
}

func (s *memStore) GetSubscription(_ context.Context, guildID int64) (SubscriptionRecord, bool, error) {
	s.mu.Lock()
	rec, ok := s.rows[guildID]
	s.mu.Unlock()
	return rec, ok, nil
}

func (s *memStore) UpsertSubscription(_ context.Context, rec SubscriptionRecord) error {
	s.mu.Lock()
	s.rows[rec.GuildID] = rec
	s.mu.Unlock()
	return nil
}

func (s *memStore) SetWebhook(_ context.Context, guildID int64, webhookID, webhookURL string) error {
	s.mu.Lock()
	if rec, ok := s.rows[guildID]; ok {
		rec.WebhookID = webhookID
		rec.WebhookURL = webhookURL
		s.rows[guildID] = rec
	}
	s.mu.Unlock()
	return nil
}

func (s *memStore) DeleteSubscription(_ context.Context, guildID int64) (bool, error) {
	s.mu.Lock()
	_, ok := s.rows[guildID]
	delete(s.rows, guildID)
	s.mu.Unlock()
	return ok, nil
}

func (s *memStore) ListSubscriptions(_ context.Context) ([]SubscriptionRecord, error) {
	s.mu.Lock()
	out := make([]SubscriptionRecord, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}

func (s *memStore) Prune(_ context.Context) error {
	s.mu.Lock()
	for id, rec := range s.rows {
		if rec.WebhookURL == "" && !strings.Contains(rec.Flags, "1") {
			delete(s.rows, id)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *memStore) Close() error { return nil }
