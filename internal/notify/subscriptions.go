package notify

import (
	"context"
	"errors"
	"sort"
	"strings"

	"notibot/pkg/logx"
)

// SubscriptionInfo materializes one directory entry for listing.
type SubscriptionInfo struct {
	DestinationID string   `json:"destination_id"`
	Types         []string `json:"types"`
}

// Subscribe adds the given types to a destination's subscription,
// creating the entry if needed. Types are merged, not replaced.
func (s *Service) Subscribe(destID string, types []string) error {
	destID = strings.TrimSpace(destID)
	if destID == "" {
		return errors.New("destination id required")
	}
	clean := normalizeTypes(types)
	if len(clean) == 0 {
		return ErrNoTypes
	}

	s.mu.Lock()
	set := s.subs[destID]
	if set == nil {
		set = map[string]struct{}{}
		s.subs[destID] = set
	}
	for _, t := range clean {
		set[t] = struct{}{}
	}
	s.saveRoutesLocked(context.Background())
	s.mu.Unlock()

	s.log.Debug("subscription updated", logx.String("destination", destID), logx.String("types", strings.Join(clean, ",")))
	return nil
}

// Unsubscribe removes the listed types from a destination's entry, or
// the whole entry when no types are given. An entry whose type set
// empties out is deleted, never persisted empty. Reports whether the
// destination had an entry.
func (s *Service) Unsubscribe(destID string, types ...string) bool {
	clean := normalizeTypes(types)

	s.mu.Lock()
	set, ok := s.subs[destID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if len(clean) == 0 {
		delete(s.subs, destID)
	} else {
		for _, t := range clean {
			delete(set, t)
		}
		if len(set) == 0 {
			delete(s.subs, destID)
		}
	}
	s.saveRoutesLocked(context.Background())
	s.mu.Unlock()
	return true
}

// Subscriptions lists all directory entries, sorted by destination id.
func (s *Service) Subscriptions() []SubscriptionInfo {
	s.mu.Lock()
	out := make([]SubscriptionInfo, 0, len(s.subs))
	for id, set := range s.subs {
		out = append(out, SubscriptionInfo{DestinationID: id, Types: sortedTypes(set)})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].DestinationID < out[j].DestinationID })
	return out
}

// TypesToDestinations returns every channel destination subscribed to
// the given type, including wildcard subscribers.
func (s *Service) TypesToDestinations(typ string) []string {
	s.mu.Lock()
	var out []string
	for id, set := range s.subs {
		if _, ok := set[typ]; ok {
			out = append(out, id)
			continue
		}
		if _, ok := set[Wildcard]; ok {
			out = append(out, id)
		}
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}

func normalizeTypes(types []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func sortedTypes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
