package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"soloquest/internal/config"
	"soloquest/internal/engine"
	"soloquest/internal/store"
	"soloquest/internal/store/postgres"
	"soloquest/internal/store/sqlite"
)

const configFile = "soloquest.yaml"

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Database.Backend {
	case "sqlite":
		return sqlite.New(ctx, cfg.Database.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", cfg.Database.Backend)
	}
}

func newLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func buildEngine(cfg *config.Config, client engine.Chatter, log *zap.Logger) *engine.Engine {
	return engine.New(client, engine.Options{
		HistoryTurns:   cfg.Memory.HistoryTurns,
		JournalEntries: cfg.Memory.JournalEntries,
		Language:       cfg.Language,
		Logger:         log,
	})
}
