package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/existflow/grantline/internal/config"
	"github.com/existflow/grantline/internal/db"
	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/notify"
	"github.com/existflow/grantline/server"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var n notify.Notifier
	switch cfg.Notifier {
	case config.NotifierPostgres:
		n, err = notify.NewPostgres(cfg.DBDSN, database.SQL())
	case config.NotifierRedis:
		n, err = notify.NewRedis(ctx, cfg.RedisAddr)
	}
	if err != nil {
		log.Fatalf("Failed to start %s notifier: %v", cfg.Notifier, err)
	}
	live := db.NewLive(database, n)
	defer live.Notifier().Close()

	srv := server.New(live, server.Options{Style: cfg.Style(), Dark: cfg.Dark})
	log.Printf("Grantline server starting on %s", cfg.ServerAddr)
	if err := srv.Run(ctx, cfg.ServerAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
