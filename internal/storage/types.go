package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "memory": in-process map backend (tests, throwaway runs)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// SubscriptionRecord is one guild's subscription row.
// Keep it compact and schema-stable.
type SubscriptionRecord struct {
	GuildID   int64
	ChannelID int64
	ThreadID  int64 // 0 when delivering straight to the channel

	// Flags is the subscription bitset serialized as a fixed-width bit
	// string (see the subscription package).
	Flags string

	WebhookID  string
	WebhookURL string
}
