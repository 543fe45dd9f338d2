package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stoneyard/shipment-bot/internal/bot"
	"github.com/stoneyard/shipment-bot/internal/form"
	"github.com/stoneyard/shipment-bot/internal/metrics"
	"github.com/stoneyard/shipment-bot/internal/report"
	"github.com/stoneyard/shipment-bot/internal/server"
	"github.com/stoneyard/shipment-bot/internal/session"
)

const sweepInterval = time.Minute

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (webhook when BASE_URL is set, long polling otherwise)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.logger

	log.Info("starting shipment bot",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreBackend),
		zap.String("sessions", cfg.SessionBackend),
		zap.Int("min_photos", cfg.MinPhotos),
	)

	sessions, mem, err := a.openSessions(ctx)
	if err != nil {
		return err
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = cfg.Env == "development"
	log.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	m := metrics.New()
	loc := cfg.Location()
	b := bot.New(api, bot.Deps{
		Machine:  form.NewMachine(a.store, form.Config{MinPhotos: cfg.MinPhotos, Location: loc}, log),
		Sessions: sessions,
		Reporter: report.NewReporter(a.store, loc, log),
		Metrics:  m,
		Logger:   log,
	})

	srv := server.New(server.Config{
		Port:          cfg.Port,
		WebhookSecret: cfg.WebhookSecret,
		Development:   cfg.Env == "development",
	}, m.Registry, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })

	if url := cfg.WebhookURL(); url != "" {
		if err := bot.RegisterWebhook(api, url); err != nil {
			return err
		}
		log.Info("webhook registered")
		defer func() {
			if err := bot.DeleteWebhook(api); err != nil {
				log.Warn("failed to delete webhook", zap.Error(err))
			}
		}()
		// Runs until the server closes the queue so accepted updates drain.
		g.Go(func() error { return b.Serve(context.WithoutCancel(gctx), srv.Updates()) })
	} else {
		if err := bot.DeleteWebhook(api); err != nil {
			return err
		}
		log.Info("long polling for updates")
		g.Go(func() error { return b.Poll(gctx, api) })
	}

	if mem != nil {
		g.Go(func() error { return sweep(gctx, mem, log) })
	}

	err = g.Wait()
	log.Info("shipment bot stopped")
	return err
}

// sweep drops expired in-memory conversations until ctx is cancelled.
func sweep(ctx context.Context, mem *session.Memory, log *zap.Logger) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := mem.Sweep(now); n > 0 {
				log.Debug("expired conversations dropped", zap.Int("count", n))
			}
		}
	}
}
