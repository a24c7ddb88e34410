package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickstation/infrastructure/audit"
	"pickstation/infrastructure/cache"
	"pickstation/infrastructure/config"
	"pickstation/infrastructure/fulfillment"
	httpserver "pickstation/infrastructure/http"
	"pickstation/infrastructure/logging"
	"pickstation/infrastructure/metrics"
	"pickstation/infrastructure/sqlite"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(logging.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		StationID: cfg.Station.ID,
	})

	db, err := sqlite.OpenDB(cfg.SQLite.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	// An empty migrations_dir applies the embedded set.
	if err := sqlite.ApplyMigrations(context.Background(), db, cfg.SQLite.MigrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	m := metrics.New()
	client := fulfillment.New(fulfillment.Options{
		BaseURL:       cfg.Backend.BaseURL,
		CSRFToken:     cfg.Backend.CSRFToken,
		SessionName:   cfg.Backend.SessionName,
		SessionCookie: cfg.Backend.SessionCookie,
		ExportPath:    cfg.Backend.ExportPath,
		BreakerWindow: cfg.Backend.BreakerWindow,
		Metrics:       m,
		Logger:        logger,
	})
	hub := cache.NewScreenHub()
	rows := cache.NewRowsCache(time.Minute)
	auditSvc := audit.NewService(db, cfg.Station.ID)

	server := httpserver.NewServer(cfg, db, client, hub, rows, auditSvc, m)
	if err := server.Start(); err != nil {
		log.Fatalf("start server: %v", err)
	}
	logger.Info("pickstation listening",
		slog.String("addr", cfg.Station.Addr),
		slog.String("backend", cfg.Backend.BaseURL),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if err := server.Stop(); err != nil {
		logger.Error("graceful shutdown error", slog.Any("err", err))
	}
}
