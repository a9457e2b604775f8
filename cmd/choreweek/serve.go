package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/choreweek/internal/config"
	"github.com/dukerupert/choreweek/internal/eventbus"
	"github.com/dukerupert/choreweek/internal/metrics"
	"github.com/dukerupert/choreweek/internal/push"
	"github.com/dukerupert/choreweek/internal/scheduler"
	"github.com/dukerupert/choreweek/internal/server"
	"github.com/dukerupert/choreweek/internal/state"
	"github.com/dukerupert/choreweek/internal/store"
	ws "github.com/dukerupert/choreweek/internal/websocket"
)

const (
	vapidPublicKey  = "vapid_public_key"
	vapidPrivateKey = "vapid_private_key"
)

type ServeCmd struct {
	Addr string `help:"Listen address, overrides server.addr."`
}

func (c *ServeCmd) Run(cc *Context) error {
	cfg, logger := cc.Config, cc.Logger
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	a, err := openApp(cfg, m, logger)
	if err != nil {
		return err
	}
	defer a.close()
	tr := a.tracker

	m.WatchPoints(func() int { return state.TotalPoints(tr.State()) })
	tr.Subscribe(m)

	hub := ws.NewHub(logger)
	tr.Subscribe(hub)

	deps := server.Deps{
		Tracker:         tr,
		Hub:             hub,
		Metrics:         m,
		Archive:         a.archive,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		LoginRateLimit:  cfg.Auth.LoginRateLimit,
		LoginRateWindow: cfg.Auth.LoginRateWindow,
		Logger:          logger,
	}

	if cfg.Push.Enabled {
		if a.pushes == nil {
			logger.Warn("web push needs the database, disabled")
		} else {
			pub, priv, err := vapidKeys(cfg.Push, a.states, logger)
			if err != nil {
				return fmt.Errorf("vapid keys: %w", err)
			}
			notifier := push.NewNotifier(a.pushes, push.NewService(pub, priv, cfg.Push.Subscriber), logger)
			defer notifier.Close()
			tr.Subscribe(notifier)
			deps.PushStore = a.pushes
			deps.VAPIDPublicKey = pub
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub := eventbus.NewPublisher(eventbus.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Error("close event publisher", "error", err)
			}
		}()
		tr.Subscribe(pub)
		logger.Info("publishing events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(tr, cfg.Scheduler.Interval, a.loc, logger)
		sched.Start(ctx)
		defer sched.Stop()
	}

	srv := server.New(deps)
	go srv.RateLimiter().RunCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("choreweek listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// vapidKeys returns the configured key pair, or one stored in the database,
// generating and storing a new pair on first use.
func vapidKeys(cfg config.PushConfig, states *store.StateStore, logger *slog.Logger) (string, string, error) {
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		return cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, nil
	}

	pub, okPub, err := states.Get(vapidPublicKey)
	if err != nil {
		return "", "", err
	}
	priv, okPriv, err := states.Get(vapidPrivateKey)
	if err != nil {
		return "", "", err
	}
	if okPub && okPriv {
		return pub, priv, nil
	}

	pub, priv, err = push.GenerateVAPIDKeys()
	if err != nil {
		return "", "", err
	}
	if err := states.Set(vapidPublicKey, pub); err != nil {
		return "", "", err
	}
	if err := states.Set(vapidPrivateKey, priv); err != nil {
		return "", "", err
	}
	logger.Info("generated VAPID keys")
	return pub, priv, nil
}
