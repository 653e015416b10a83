package config

import (
	"strings"
	"time"
)

// Config is the whole bot configuration file (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Notify   NotifyConfig   `json:"notify"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level string `json:"level,omitempty"`
}

// StorageConfig selects the document store backing routing state.
// Driver: "file", "sqlite", or ""/"none" to disable persistence.
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// NotifyConfig controls the delivery engine.
//
// Defaults (when fields are omitted/zero):
//   - tick: "5s"
//   - batch_size: 10
//   - retry_max: 3
//   - rate_per_sec: 10
//   - send_timeout: "10s"
//   - history_size: 200
//   - id_bytes: 8
type NotifyConfig struct {
	Tick          string `json:"tick,omitempty"`
	BatchSize     int    `json:"batch_size,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	SendTimeout   string `json:"send_timeout,omitempty"`
	HistorySize   int    `json:"history_size,omitempty"`
	IDBytes       int    `json:"id_bytes,omitempty"`
	WebhookName   string `json:"webhook_name,omitempty"`
	WebhookAvatar string `json:"webhook_avatar,omitempty"`
}

// ParseDuration reads a duration string, falling back to def when the
// field is empty or malformed.
func ParseDuration(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
