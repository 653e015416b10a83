package notify

import (
	"errors"
	"strconv"
	"time"

	"notibot/internal/kit"
)

var (
	// ErrTemplateNotFound marks a caller error: the requested
	// notification type has no registered template. Never retried.
	ErrTemplateNotFound = errors.New("template not found")

	ErrNoTypes       = errors.New("at least one notification type required")
	ErrBadWebhookURL = errors.New("webhook url must be http(s)")
)

// Wildcard subscribes a destination or webhook to every notification type.
const Wildcard = "all"

// FieldValueLimit caps rendered field values in characters; longer
// values are cut to FieldValueLimit-3 runes plus the truncation marker.
const FieldValueLimit = 1024

const truncationMark = "..."

// Config controls the delivery engine.
type Config struct {
	TickInterval time.Duration // queue drain period
	BatchSize    int           // max jobs removed per tick
	RetryMax     int           // job-level retries before dropping
	RatePerSec   int           // token bucket across all sink sends
	SendTimeout  time.Duration // per sink call
	HistorySize  int
	IDBytes      int // entropy of job/webhook/schedule ids

	// Fixed display identity for outbound webhook posts.
	WebhookName   string
	WebhookAvatar string
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 5 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryMax == 0 {
		c.RetryMax = 3
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 10
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 200
	}
	if c.IDBytes <= 0 {
		c.IDBytes = 8
	}
	if c.WebhookName == "" {
		c.WebhookName = "notibot"
	}
	return c
}

// Job is one queued notification instance awaiting render + delivery.
type Job struct {
	ID         string
	Type       string
	Data       Data
	Channels   []string
	Options    *kit.SendOptions
	EnqueuedAt time.Time
	Retries    int
}

// Webhook is a registered outbound HTTP destination. The registry key
// is its id; usage counters are bumped by the processor on success.
type Webhook struct {
	URL          string    `json:"url"`
	Types        []string  `json:"types"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastUsedAt   time.Time `json:"last_used_at"`
	MessagesSent uint64    `json:"messages_sent"`
}

// HistoryItem records one finished delivery attempt chain.
type HistoryItem struct {
	At    time.Time
	JobID string
	Type  string
	OK    bool
}

// DeliveryEvent is published on the event bus for engine lifecycle events.
type DeliveryEvent struct {
	JobID       string    `json:"job_id"`
	Type        string    `json:"type"`
	Destination string    `json:"destination,omitempty"`
	Attempt     int       `json:"attempt,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}

// Event bus topics.
const (
	EventEnqueued      = "notify.enqueued"
	EventSent          = "notify.sent"
	EventRetried       = "notify.retried"
	EventDropped       = "notify.dropped"
	EventSinkFailed    = "notify.sink_failed"
	EventWebhookSent   = "notify.webhook_sent"
	EventWebhookFailed = "notify.webhook_failed"
)

type valueKind uint8

const (
	kindString valueKind = iota
	kindNumber
	kindTime
)

// Value is one renderable datum: a string, a number, or a timestamp.
// Construction is type-checked at the call site; rendering is always
// string-based.
type Value struct {
	kind valueKind
	str  string
	num  float64
	ts   time.Time
}

func S(s string) Value    { return Value{kind: kindString, str: s} }
func N(n float64) Value   { return Value{kind: kindNumber, num: n} }
func T(t time.Time) Value { return Value{kind: kindTime, ts: t} }

const timeLayout = "2006-01-02 15:04"

func (v Value) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindTime:
		return v.ts.Format(timeLayout)
	default:
		return v.str
	}
}

// Data is the render context for one notification.
type Data map[string]Value
