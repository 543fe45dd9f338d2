package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stoneyard/shipment-bot/internal/config"
	"github.com/stoneyard/shipment-bot/internal/db"
	"github.com/stoneyard/shipment-bot/internal/logger"
	"github.com/stoneyard/shipment-bot/internal/session"
	"github.com/stoneyard/shipment-bot/internal/sheets"
	"github.com/stoneyard/shipment-bot/internal/store"
)

// app holds the components shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   store.Store
	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: log}
	a.store, err = a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	switch a.cfg.StoreBackend {
	case config.StoreSQLite:
		a.logger.Info("opening SQLite store", zap.String("path", a.cfg.DBPath))
		database, err := db.New(a.cfg.DBPath, a.cfg.Location())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		return database, nil

	case config.StoreSheets:
		a.logger.Info("connecting to spreadsheet", zap.String("title", a.cfg.SheetTitle))
		st, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   a.cfg.SpreadsheetID,
			Title:           a.cfg.SheetTitle,
			CredentialsJSON: a.cfg.CredentialsJSON,
			Location:        a.cfg.Location(),
		}, a.logger)
		if err != nil {
			// Reports degrade to "unavailable" rather than keeping the bot down.
			a.logger.Error("spreadsheet unavailable, shipments will not be saved", zap.Error(err))
			return store.Unavailable{}, nil
		}
		return st, nil
	}

	a.logger.Warn("no shipment store configured")
	return store.Unavailable{}, nil
}

func (a *app) openSessions(ctx context.Context) (session.Store, *session.Memory, error) {
	if a.cfg.SessionBackend != config.SessionRedis {
		mem := session.NewMemory(a.cfg.SessionTTL)
		return mem, mem, nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.logger.Info("using redis session store", zap.String("addr", opts.Addr))
	return session.NewRedis(client, a.cfg.SessionTTL, a.logger), nil, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
