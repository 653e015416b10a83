// Package webhook posts rendered notifications to external HTTP
// endpoints as embed-style JSON payloads.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notibot/internal/kit"
	"notibot/pkg/logx"
)

// Sink implements kit.WebhookSink over a shared http.Client.
type Sink struct {
	log  logx.Logger
	http *http.Client
}

func New(log logx.Logger, timeout time.Duration) *Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sink{log: log, http: &http.Client{Timeout: timeout}}
}

type payload struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

type embed struct {
	Title     string      `json:"title,omitempty"`
	Color     int         `json:"color,omitempty"`
	Fields    []kit.Field `json:"fields,omitempty"`
	Footer    *footer     `json:"footer,omitempty"`
	Thumbnail *media      `json:"thumbnail,omitempty"`
	Image     *media      `json:"image,omitempty"`
}

type footer struct {
	Text string `json:"text"`
}

type media struct {
	URL string `json:"url"`
}

// Post sends one message to url under the given display identity.
// Any non-2xx response is a failure.
func (s *Sink) Post(ctx context.Context, url, displayName, avatarURL string, msg kit.Message) error {
	body, err := json.Marshal(payload{
		Username:  displayName,
		AvatarURL: avatarURL,
		Embeds:    []embed{toEmbed(msg)},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	s.log.Debug("webhook delivered", logx.String("url", url), logx.Int("status", resp.StatusCode))
	return nil
}

func toEmbed(msg kit.Message) embed {
	e := embed{
		Title:  msg.Title,
		Color:  msg.Color,
		Fields: msg.Fields,
	}
	if msg.Footer != "" {
		e.Footer = &footer{Text: msg.Footer}
	}
	if msg.Thumbnail != "" {
		e.Thumbnail = &media{URL: msg.Thumbnail}
	}
	if msg.Image != "" {
		e.Image = &media{URL: msg.Image}
	}
	return e
}
