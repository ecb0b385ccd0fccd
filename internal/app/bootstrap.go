package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wms-admin/internal/core/config"
	"wms-admin/internal/core/logger"
	"wms-admin/internal/core/tracing"
)

// Bootstrap loads configuration and opens the logger, tracing, database and
// cache. The returned cleanup releases them in reverse order.
func Bootstrap(ctx context.Context, configPath string) (*Container, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, syncLog := NewLogger(cfg.Log)
	undoStdLog := logger.RedirectStdLog(log, zapcore.InfoLevel)

	shutdownTracing, err := tracing.Init(ctx, log, cfg.Tracing, cfg.App.Env)
	if err != nil {
		undoStdLog()
		syncLog()
		return nil, nil, fmt.Errorf("tracing: %w", err)
	}

	db, err := OpenDB(cfg, log)
	if err != nil {
		_ = shutdownTracing(ctx)
		undoStdLog()
		syncLog()
		return nil, nil, err
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	rc, err := OpenCache(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, grants resolved from database", zap.Error(err))
		rc = nil
	}

	c := New(cfg, log, db, WithCache(rc))
	cleanup := func() {
		c.Close()
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
		undoStdLog()
		syncLog()
	}
	return c, cleanup, nil
}
