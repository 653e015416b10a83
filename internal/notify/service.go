package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"notibot/internal/eventbus"
	"notibot/internal/kit"
	"notibot/internal/storage"
	"notibot/pkg/ids"
	"notibot/pkg/logx"
)

// Service owns the template registry, the delivery queue, the routing
// directories, and the processor tick loop. All mutation goes through
// its methods; there is no ambient global state.
type Service struct {
	mu sync.Mutex

	log   logx.Logger
	cfg   Config
	sink  kit.ChannelSink
	hooks kit.WebhookSink
	store storage.Store
	bus   eventbus.Bus

	templates *Registry

	queue []*Job
	subs  map[string]map[string]struct{} // destination id -> subscribed types
	webs  map[string]*Webhook            // webhook id -> registration

	limiter *rate.Limiter

	cron    *cron.Cron
	tmu     sync.Mutex
	timers  map[string]*time.Timer
	entries map[string]cron.EntryID

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sink kit.ChannelSink, hooks kit.WebhookSink, store storage.Store, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		log:       log,
		sink:      sink,
		hooks:     hooks,
		store:     store,
		bus:       bus,
		templates: NewRegistry(),
		subs:      map[string]map[string]struct{}{},
		webs:      map[string]*Webhook{},
		cron:      cron.New(),
		timers:    map[string]*time.Timer{},
		entries:   map[string]cron.EntryID{},
	}
	s.applyLocked(cfg)
	registerBuiltins(s.templates)
	s.loadRoutes(context.Background())
	return s
}

// Apply updates runtime settings. Safe while running; the new tick
// interval takes effect from the next Start.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	cfg = cfg.withDefaults()
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// RegisterTemplate adds or replaces a message template.
func (s *Service) RegisterTemplate(name string, tpl Template) {
	s.templates.Register(name, tpl)
}

// GetTemplate looks up a registered template.
func (s *Service) GetTemplate(name string) (Template, bool) {
	return s.templates.Get(name)
}

// Templates lists every registered template, sorted by name.
func (s *Service) Templates() []Template { return s.templates.List() }

// Start launches the processor tick loop and the recurring scheduler.
// It is idempotent.
func (s *Service) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	tick := s.cfg.TickInterval
	s.mu.Unlock()

	s.cron.Start()

	s.wg.Add(1)
	go s.run(ctx, stopCh, tick)
	s.log.Info("notify engine started", logx.Duration("tick", tick))
}

// Stop halts the tick loop, the recurring scheduler, and every armed
// one-shot timer. Pending queue entries stay queued for a later Start.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.stopCh = nil
	s.mu.Unlock()

	<-s.cron.Stop().Done()

	s.tmu.Lock()
	for _, t := range s.timers {
		_ = t.Stop()
	}
	s.timers = map[string]*time.Timer{}
	s.tmu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	s.log.Info("notify engine stopped")
}

func (s *Service) run(ctx context.Context, stopCh <-chan struct{}, tick time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.drainOnce(ctx)
		}
	}
}

// Enqueue queues one notification for delivery on a future tick.
// It validates the type eagerly so callers learn about a bad template
// name synchronously; everything after that is fire-and-forget.
func (s *Service) Enqueue(typ string, data Data, channels []string, opt *kit.SendOptions) (string, error) {
	if _, ok := s.templates.Get(typ); !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, typ)
	}

	s.mu.Lock()
	job := &Job{
		ID:         ids.New(s.cfg.IDBytes),
		Type:       typ,
		Data:       data,
		Channels:   append([]string(nil), channels...),
		Options:    opt,
		EnqueuedAt: time.Now(),
	}
	s.queue = append(s.queue, job)
	s.mu.Unlock()

	s.publish(EventEnqueued, DeliveryEvent{JobID: job.ID, Type: typ})
	return job.ID, nil
}

// QueueSize reports how many jobs are pending.
func (s *Service) QueueSize() int {
	s.mu.Lock()
	n := len(s.queue)
	s.mu.Unlock()
	return n
}

// drainOnce removes at most one batch from the head of the queue and
// processes it sequentially. It returns the number of jobs taken.
func (s *Service) drainOnce(ctx context.Context) int {
	s.mu.Lock()
	n := s.cfg.BatchSize
	if n > len(s.queue) {
		n = len(s.queue)
	}
	batch := s.queue[:n:n]
	s.queue = s.queue[n:]
	s.mu.Unlock()

	for _, j := range batch {
		if ctx.Err() != nil {
			// Shutting down mid-batch: put the leftovers back.
			s.requeue(j)
			continue
		}
		s.processJob(ctx, j)
	}
	return len(batch)
}

func (s *Service) processJob(ctx context.Context, j *Job) {
	err := s.deliver(ctx, j)
	if err == nil {
		s.remember(j, true)
		s.publish(EventSent, DeliveryEvent{JobID: j.ID, Type: j.Type})
		return
	}

	if errors.Is(err, ErrTemplateNotFound) {
		// A bad type never becomes valid; dropping beats spinning.
		s.log.Error("dropping job with unknown template", logx.String("job", j.ID), logx.String("type", j.Type))
		s.remember(j, false)
		s.publish(EventDropped, DeliveryEvent{JobID: j.ID, Type: j.Type, Error: err.Error()})
		return
	}

	s.mu.Lock()
	retryMax := s.cfg.RetryMax
	s.mu.Unlock()

	if j.Retries < retryMax {
		j.Retries++
		s.requeue(j)
		s.log.Warn("delivery failed; requeued",
			logx.String("job", j.ID), logx.String("type", j.Type),
			logx.Int("attempt", j.Retries), logx.Int("max", retryMax), logx.Err(err))
		s.publish(EventRetried, DeliveryEvent{JobID: j.ID, Type: j.Type, Attempt: j.Retries, Error: err.Error()})
		return
	}

	s.remember(j, false)
	s.log.Error("job dropped after exhausting retries",
		logx.String("job", j.ID), logx.String("type", j.Type), logx.Err(err))
	s.publish(EventDropped, DeliveryEvent{JobID: j.ID, Type: j.Type, Attempt: j.Retries, Error: err.Error()})
}

func (s *Service) requeue(j *Job) {
	s.mu.Lock()
	s.queue = append(s.queue, j)
	s.mu.Unlock()
}

type hookTarget struct {
	id  string
	url string
}

// deliver renders the job and fans it out. Individual sink failures are
// logged and absorbed; only a fault outside the per-sink sends (render
// error, panic during fan-out) escapes and triggers the retry policy.
func (s *Service) deliver(ctx context.Context, j *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery fault: %v", r)
		}
	}()

	msg, err := s.Render(j.Type, j.Data)
	if err != nil {
		return err
	}

	// Snapshot routing at send time, not enqueue time, so a subscription
	// change affects jobs that haven't been drained yet.
	s.mu.Lock()
	sink := s.sink
	hooks := s.hooks
	lim := s.limiter
	timeout := s.cfg.SendTimeout
	name, avatar := s.cfg.WebhookName, s.cfg.WebhookAvatar
	targets := s.webhookTargetsLocked(j.Type)
	s.mu.Unlock()

	for _, ch := range j.Channels {
		if sink == nil {
			s.log.Warn("no channel sink configured; skipping channel sends", logx.String("job", j.ID))
			break
		}
		if lim != nil {
			_ = lim.Wait(ctx)
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		serr := sink.Send(cctx, ch, msg, j.Options)
		cancel()
		if serr != nil {
			// One dead channel must not poison the rest of the fan-out.
			s.log.Error("channel send failed", logx.String("job", j.ID), logx.String("channel", ch), logx.Err(serr))
			s.publish(EventSinkFailed, DeliveryEvent{JobID: j.ID, Type: j.Type, Destination: ch, Error: serr.Error()})
		}
	}

	dirty := false
	for _, t := range targets {
		if hooks == nil {
			break
		}
		if lim != nil {
			_ = lim.Wait(ctx)
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		perr := hooks.Post(cctx, t.url, name, avatar, msg)
		cancel()
		if perr != nil {
			s.log.Error("webhook post failed", logx.String("job", j.ID), logx.String("webhook", t.id), logx.Err(perr))
			s.publish(EventWebhookFailed, DeliveryEvent{JobID: j.ID, Type: j.Type, Destination: t.id, Error: perr.Error()})
			continue
		}
		s.mu.Lock()
		if reg, ok := s.webs[t.id]; ok {
			reg.MessagesSent++
			reg.LastUsedAt = time.Now()
			dirty = true
		}
		s.mu.Unlock()
		s.publish(EventWebhookSent, DeliveryEvent{JobID: j.ID, Type: j.Type, Destination: t.id})
	}

	if dirty {
		s.mu.Lock()
		s.saveRoutesLocked(ctx)
		s.mu.Unlock()
	}
	return nil
}

func (s *Service) publish(topic string, ev DeliveryEvent) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	ev.At = now
	s.bus.Publish(eventbus.Event{Type: topic, Time: now, Data: ev})
}

func (s *Service) remember(j *Job, ok bool) {
	s.mu.Lock()
	max := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: time.Now(), JobID: j.ID, Type: j.Type, OK: ok})
	if len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
	s.hmu.Unlock()
}

// History returns a copy of the recent delivery outcomes, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}
