package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notibot/internal/adapters/telegram"
	"notibot/internal/adapters/webhook"
	"notibot/internal/config"
	"notibot/internal/eventbus"
	"notibot/internal/kit"
	"notibot/internal/notify"
	"notibot/internal/storage"
	"notibot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	mgr := config.NewManager(cfgPath, logx.NewConsole("info"))
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logx.NewConsole(cfg.Logging.Level)

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: config.ParseDuration(cfg.Storage.BusyTimeout, 0),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	var channels kit.ChannelSink
	if cfg.Telegram.Token != "" {
		tg, err := telegram.New(telegram.Config{
			Token:       cfg.Telegram.Token,
			PollTimeout: config.ParseDuration(cfg.Telegram.PollTimeout, 0),
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return fmt.Errorf("telegram adapter: %w", err)
		}
		channels = tg
	} else {
		log.Warn("telegram token not configured; channel sends disabled")
	}

	sendTimeout := config.ParseDuration(cfg.Notify.SendTimeout, 10*time.Second)
	hooks := webhook.New(log.With(logx.String("comp", "webhook")), sendTimeout)

	bus := eventbus.New()
	svc := notify.New(engineConfig(cfg), channels, hooks, store, bus, log.With(logx.String("comp", "notify")))

	// Mirror engine lifecycle events into the debug log.
	events, unsub := bus.Subscribe(64)
	defer unsub()
	go func() {
		for e := range events {
			log.Debug(e.Type, logx.Any("event", e.Data))
		}
	}()

	// Hot-reload engine settings on config change.
	reloads, unsubCfg := mgr.Subscribe()
	defer unsubCfg()
	go func() {
		for c := range reloads {
			svc.Apply(engineConfig(c))
		}
	}()
	go func() {
		if err := mgr.Watch(ctx); err != nil && ctx.Err() == nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	svc.Start(ctx)
	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	svc.Stop(stopCtx)
	return nil
}

func engineConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		TickInterval:  config.ParseDuration(cfg.Notify.Tick, 0),
		BatchSize:     cfg.Notify.BatchSize,
		RetryMax:      cfg.Notify.RetryMax,
		RatePerSec:    cfg.Notify.RatePerSec,
		SendTimeout:   config.ParseDuration(cfg.Notify.SendTimeout, 0),
		HistorySize:   cfg.Notify.HistorySize,
		IDBytes:       cfg.Notify.IDBytes,
		WebhookName:   cfg.Notify.WebhookName,
		WebhookAvatar: cfg.Notify.WebhookAvatar,
	}
}
