// Package kit holds the small shared types exchanged between the
// notification engine and its delivery adapters.
package kit

import "context"

// Field is one name/value row of a rendered message.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Message is a fully rendered notification, ready for a sink.
// It is platform-neutral; adapters decide how to present it.
type Message struct {
	Title     string  `json:"title"`
	Color     int     `json:"color"`
	Fields    []Field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Image     string  `json:"image,omitempty"`
}

// SendOptions carries optional per-delivery extras.
//
// Components is an opaque UI descriptor (e.g. *tele.ReplyMarkup for the
// Telegram adapter); sinks that don't understand it ignore it.
type SendOptions struct {
	Mention    string
	Components any
}

// ChannelSink delivers a rendered message to one chat channel.
type ChannelSink interface {
	Send(ctx context.Context, channelID string, msg Message, opt *SendOptions) error
}

// WebhookSink posts a rendered message to an external HTTP endpoint
// under a fixed display identity.
type WebhookSink interface {
	Post(ctx context.Context, url, displayName, avatarURL string, msg Message) error
}
