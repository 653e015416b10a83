package notify

import "time"

// Convenience builders for well-known business events. Each one picks
// the built-in template, builds the typed data bag, targets every
// channel subscribed to the type plus any explicitly listed extras,
// and enqueues.

func (s *Service) AnnounceMaintenance(start, end time.Time, reason, impact string, extraChannels ...string) (string, error) {
	data := Data{
		"startTime": T(start),
		"endTime":   T(end),
		"reason":    S(reason),
		"impact":    S(impact),
	}
	return s.announce(TypeMaintenance, data, extraChannels)
}

func (s *Service) AnnounceFeature(name, description, version string, extraChannels ...string) (string, error) {
	data := Data{
		"name":        S(name),
		"description": S(description),
		"version":     S(version),
	}
	return s.announce(TypeFeature, data, extraChannels)
}

func (s *Service) AnnounceSecurity(severity, description, action string, extraChannels ...string) (string, error) {
	data := Data{
		"severity":    S(severity),
		"description": S(description),
		"action":      S(action),
	}
	return s.announce(TypeSecurity, data, extraChannels)
}

func (s *Service) AnnounceVersion(version, changelog string, extraChannels ...string) (string, error) {
	data := Data{
		"version":   S(version),
		"changelog": S(changelog),
	}
	return s.announce(TypeVersion, data, extraChannels)
}

func (s *Service) AnnounceSpecialEvent(name, description string, start time.Time, reward string, extraChannels ...string) (string, error) {
	data := Data{
		"name":        S(name),
		"description": S(description),
		"startTime":   T(start),
		"reward":      S(reward),
	}
	return s.announce(TypeEvent, data, extraChannels)
}

func (s *Service) AnnouncePromotion(title, description, discount string, validUntil time.Time, extraChannels ...string) (string, error) {
	data := Data{
		"title":       S(title),
		"description": S(description),
		"discount":    S(discount),
		"validUntil":  T(validUntil),
	}
	return s.announce(TypePromotion, data, extraChannels)
}

func (s *Service) announce(typ string, data Data, extra []string) (string, error) {
	dests := s.TypesToDestinations(typ)
	seen := map[string]struct{}{}
	for _, d := range dests {
		seen[d] = struct{}{}
	}
	for _, d := range extra {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		dests = append(dests, d)
	}
	return s.Enqueue(typ, data, dests, nil)
}
