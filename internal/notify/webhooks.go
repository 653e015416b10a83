package notify

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"notibot/pkg/ids"
	"notibot/pkg/logx"
)

// WebhookInfo materializes one webhook registration for listing.
type WebhookInfo struct {
	ID string `json:"id"`
	Webhook
}

// AddWebhook registers an outbound HTTP destination for the given types
// (or the "all" wildcard) and returns its id.
func (s *Service) AddWebhook(rawURL string, types []string, name string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBadWebhookURL, rawURL)
	}
	clean := normalizeTypes(types)
	if len(clean) == 0 {
		return "", ErrNoTypes
	}

	s.mu.Lock()
	id := ids.New(s.cfg.IDBytes)
	s.webs[id] = &Webhook{
		URL:       rawURL,
		Types:     clean,
		Name:      name,
		CreatedAt: time.Now(),
	}
	s.saveRoutesLocked(context.Background())
	s.mu.Unlock()

	s.log.Info("webhook registered", logx.String("webhook", id), logx.String("name", name))
	return id, nil
}

// RemoveWebhook removes the listed types from a registration, or the
// whole registration when no types are given. A registration whose type
// set empties out is deleted, never kept empty. Reports whether the
// webhook existed.
func (s *Service) RemoveWebhook(id string, types ...string) bool {
	clean := normalizeTypes(types)

	s.mu.Lock()
	w, ok := s.webs[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if len(clean) == 0 {
		delete(s.webs, id)
	} else {
		drop := map[string]struct{}{}
		for _, t := range clean {
			drop[t] = struct{}{}
		}
		kept := w.Types[:0]
		for _, t := range w.Types {
			if _, rm := drop[t]; !rm {
				kept = append(kept, t)
			}
		}
		w.Types = kept
		if len(kept) == 0 {
			delete(s.webs, id)
		}
	}
	s.saveRoutesLocked(context.Background())
	s.mu.Unlock()

	s.log.Info("webhook updated", logx.String("webhook", id))
	return true
}

// Webhooks lists all registrations, sorted by id.
func (s *Service) Webhooks() []WebhookInfo {
	s.mu.Lock()
	out := make([]WebhookInfo, 0, len(s.webs))
	for id, w := range s.webs {
		cp := *w
		cp.Types = append([]string(nil), w.Types...)
		out = append(out, WebhookInfo{ID: id, Webhook: cp})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// webhookTargetsLocked resolves the webhooks matching a notification
// type (exact or wildcard). Caller holds s.mu.
func (s *Service) webhookTargetsLocked(typ string) []hookTarget {
	var out []hookTarget
	for id, w := range s.webs {
		for _, t := range w.Types {
			if t == typ || t == Wildcard {
				out = append(out, hookTarget{id: id, url: w.URL})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
