package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// WebhookUsage is the per-webhook slice of Stats.
type WebhookUsage struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MessagesSent uint64    `json:"messages_sent"`
	LastUsedAt   time.Time `json:"last_used_at"`
}

// Stats is a point-in-time snapshot of the engine.
type Stats struct {
	QueueSize          int            `json:"queue_size"`
	TotalWebhooks      int            `json:"total_webhooks"`
	TotalSubscriptions int            `json:"total_subscriptions"`
	SubscribersByType  map[string]int `json:"subscribers_by_type"`
	Webhooks           []WebhookUsage `json:"webhooks"`
}

func (s *Service) Stats() Stats {
	st := Stats{SubscribersByType: map[string]int{}}

	s.mu.Lock()
	st.QueueSize = len(s.queue)
	st.TotalWebhooks = len(s.webs)
	st.TotalSubscriptions = len(s.subs)
	for _, set := range s.subs {
		for t := range set {
			st.SubscribersByType[t]++
		}
	}
	s.mu.Unlock()

	for _, w := range s.Webhooks() {
		st.Webhooks = append(st.Webhooks, WebhookUsage{
			ID:           w.ID,
			Name:         w.Name,
			MessagesSent: w.MessagesSent,
			LastUsedAt:   w.LastUsedAt,
		})
	}
	return st
}

// FormatStats renders a snapshot for operator-facing output.
func FormatStats(st Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "queue: %s pending\n", humanize.Comma(int64(st.QueueSize)))
	fmt.Fprintf(&b, "subscriptions: %d destinations, webhooks: %d\n", st.TotalSubscriptions, st.TotalWebhooks)
	for _, w := range st.Webhooks {
		last := "never"
		if !w.LastUsedAt.IsZero() {
			last = humanize.Time(w.LastUsedAt)
		}
		fmt.Fprintf(&b, "  %s (%s): %s sent, last %s\n", w.Name, w.ID, humanize.Comma(int64(w.MessagesSent)), last)
	}
	return b.String()
}
