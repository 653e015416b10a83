// Package storage provides the key-value document store backing the
// notification engine's durable state (subscription and webhook routing).
//
// Drivers:
//   - "file": one JSON document per key under a directory (atomic writes)
//   - "sqlite": a single SQLite database file (build with -tags sqlite)
//
// An empty or "none" driver disables persistence; the engine then keeps
// everything in memory only.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"notibot/pkg/logx"
)

// Config selects and configures a driver.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the minimal persistence API: whole-document load and save.
type Store interface {
	// Load returns the document stored under key, or ok=false when absent.
	Load(ctx context.Context, key string) (doc json.RawMessage, ok bool, err error)
	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, doc any) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
