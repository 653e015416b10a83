package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"notibot/pkg/logx"
)

// routesKey is the storage document holding both directories.
const routesKey = "notify_routes"

// The persisted layout is a pair of [id, record] tuple lists:
//
//	{ "webhooks": [[id, record], ...], "subscriptions": [[id, types], ...] }
type routesDoc struct {
	Webhooks      []hookEntry `json:"webhooks"`
	Subscriptions []subEntry  `json:"subscriptions"`
}

type hookEntry struct {
	ID  string
	Rec Webhook
}

func (e hookEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Rec})
}

func (e *hookEntry) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return fmt.Errorf("webhook entry id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Rec); err != nil {
		return fmt.Errorf("webhook entry record: %w", err)
	}
	return nil
}

type subEntry struct {
	ID    string
	Types []string
}

func (e subEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Types})
}

func (e *subEntry) UnmarshalJSON(b []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &e.ID); err != nil {
		return fmt.Errorf("subscription entry id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Types); err != nil {
		return fmt.Errorf("subscription entry types: %w", err)
	}
	return nil
}

// loadRoutes restores both directories from the store. A load failure
// is logged, not fatal: the engine starts with empty routing and the
// next successful save becomes authoritative.
func (s *Service) loadRoutes(ctx context.Context) {
	if s.store == nil {
		return
	}
	raw, ok, err := s.store.Load(ctx, routesKey)
	if err != nil {
		s.log.Error("loading notification routes failed", logx.Err(err))
		return
	}
	if !ok {
		return
	}
	var doc routesDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Error("notification routes document is corrupt", logx.Err(err))
		return
	}

	s.mu.Lock()
	for _, e := range doc.Webhooks {
		rec := e.Rec
		s.webs[e.ID] = &rec
	}
	for _, e := range doc.Subscriptions {
		if len(e.Types) == 0 {
			continue
		}
		set := map[string]struct{}{}
		for _, t := range e.Types {
			set[t] = struct{}{}
		}
		s.subs[e.ID] = set
	}
	s.mu.Unlock()
	s.log.Info("notification routes loaded",
		logx.Int("webhooks", len(doc.Webhooks)), logx.Int("subscriptions", len(doc.Subscriptions)))
}

// saveRoutesLocked persists both directories as one document. Caller
// holds s.mu. Failures are logged; in-memory state stays authoritative.
func (s *Service) saveRoutesLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	doc := routesDoc{
		Webhooks:      make([]hookEntry, 0, len(s.webs)),
		Subscriptions: make([]subEntry, 0, len(s.subs)),
	}
	for id, w := range s.webs {
		doc.Webhooks = append(doc.Webhooks, hookEntry{ID: id, Rec: *w})
	}
	for id, set := range s.subs {
		doc.Subscriptions = append(doc.Subscriptions, subEntry{ID: id, Types: sortedTypes(set)})
	}
	sort.Slice(doc.Webhooks, func(i, j int) bool { return doc.Webhooks[i].ID < doc.Webhooks[j].ID })
	sort.Slice(doc.Subscriptions, func(i, j int) bool { return doc.Subscriptions[i].ID < doc.Subscriptions[j].ID })

	if err := s.store.Save(ctx, routesKey, doc); err != nil {
		s.log.Error("saving notification routes failed", logx.Err(err))
	}
}
