package notify

import (
	"fmt"
	"time"

	"notibot/internal/kit"
	"notibot/pkg/ids"
	"notibot/pkg/logx"
)

// ScheduleDelivery enqueues a notification at sendAt. A now-or-past
// sendAt behaves exactly like Enqueue and the returned token is the job
// id. Otherwise the token identifies a one-shot timer that performs the
// enqueue when it fires.
//
// Armed timers are not persisted: a restart loses them.
func (s *Service) ScheduleDelivery(typ string, data Data, channels []string, sendAt time.Time, opt *kit.SendOptions) (string, error) {
	if _, ok := s.templates.Get(typ); !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, typ)
	}
	if !sendAt.After(time.Now()) {
		return s.Enqueue(typ, data, channels, opt)
	}

	s.mu.Lock()
	token := "at:" + ids.New(s.cfg.IDBytes)
	s.mu.Unlock()

	s.tmu.Lock()
	s.timers[token] = time.AfterFunc(time.Until(sendAt), func() {
		s.tmu.Lock()
		delete(s.timers, token)
		s.tmu.Unlock()
		if _, err := s.Enqueue(typ, data, channels, opt); err != nil {
			s.log.Error("scheduled enqueue failed", logx.String("token", token), logx.Err(err))
		}
	})
	s.tmu.Unlock()

	s.log.Debug("delivery scheduled", logx.String("token", token), logx.Time("send_at", sendAt))
	return token, nil
}

// ScheduleRecurring arms a cron-spec driven repeating delivery (e.g.
// "0 9 * * 1" or "@every 1h") and returns a token for removal.
func (s *Service) ScheduleRecurring(typ string, data Data, channels []string, spec string, opt *kit.SendOptions) (string, error) {
	if _, ok := s.templates.Get(typ); !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, typ)
	}
	entry, err := s.cron.AddFunc(spec, func() {
		if _, err := s.Enqueue(typ, data, channels, opt); err != nil {
			s.log.Error("recurring enqueue failed", logx.String("type", typ), logx.Err(err))
		}
	})
	if err != nil {
		return "", fmt.Errorf("bad cron spec %q: %w", spec, err)
	}

	token := fmt.Sprintf("cron:%d", entry)
	s.tmu.Lock()
	s.entries[token] = entry
	s.tmu.Unlock()

	s.log.Info("recurring delivery armed", logx.String("token", token), logx.String("spec", spec), logx.String("type", typ))
	return token, nil
}

// CancelScheduled disarms a pending one-shot or recurring schedule.
// Already-enqueued jobs are unaffected. Reports whether the token was
// known and still pending.
func (s *Service) CancelScheduled(token string) bool {
	s.tmu.Lock()
	defer s.tmu.Unlock()
	if t, ok := s.timers[token]; ok {
		delete(s.timers, token)
		return t.Stop()
	}
	if id, ok := s.entries[token]; ok {
		delete(s.entries, token)
		s.cron.Remove(id)
		return true
	}
	return false
}

// PendingSchedules reports how many one-shot timers are armed.
func (s *Service) PendingSchedules() int {
	s.tmu.Lock()
	n := len(s.timers)
	s.tmu.Unlock()
	return n
}
