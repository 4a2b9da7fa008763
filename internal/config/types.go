package config

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Transport TransportConfig `json:"transport"`
	Engine    EngineConfig    `json:"engine"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Report    ReportConfig    `json:"report"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./herald.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// TransportConfig selects and configures the delivery transport.
//
// Driver values: "webhook" (default), "telegram".
type TransportConfig struct {
	Driver   string          `json:"driver"`
	Webhook  WebhookConfig  `json:"webhook,omitempty"`
	Telegram TelegramConfig `json:"telegram,omitempty"`
}

type WebhookConfig struct {
	APIBase     string `json:"api_base,omitempty"`
	Token       string `json:"token,omitempty"`
	WebhookName string `json:"webhook_name,omitempty"`
	// Timeout is a Go duration string (e.g. "10s").
	Timeout string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Token   string `json:"token"`
	Timeout string `json:"timeout,omitempty"`
}

// EngineConfig tunes the fire loops.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type EngineConfig struct {
	FireGrace      string `json:"fire_grace,omitempty"`
	ReportAttempts int    `json:"report_attempts,omitempty"`
	ReportBackoff  string `json:"report_backoff,omitempty"`
}

// DispatchConfig tunes the fanout.
type DispatchConfig struct {
	SendTimeout   string  `json:"send_timeout,omitempty"`
	RatePerSecond float64 `json:"rate_per_second,omitempty"`
	Burst         int     `json:"burst,omitempty"`
}

// ReportConfig configures the fashion report fetcher.
type ReportConfig struct {
	SourceURL string `json:"source_url,omitempty"`
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}
