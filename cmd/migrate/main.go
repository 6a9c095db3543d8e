package main

import (
	"context"
	"flag"
	"time"

	"clientdesk/internal/config"
	"clientdesk/internal/db"
	pkgconfig "clientdesk/pkg/config"
	pkgdb "clientdesk/pkg/db"
	"clientdesk/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	statusOnly := flag.Bool("status", false, "print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load(pkgconfig.GetConfigEnv(), pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Env)
	defer log.Sync()

	pool, err := pkgdb.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrator := db.NewMigrator(pool, log)
	if *statusOnly {
		version, err := migrator.CurrentVersion(ctx)
		if err != nil {
			log.Fatal("Failed to read schema version", zap.Error(err))
		}
		log.Info("Current schema version", zap.Int("version", version), zap.Int("latest", db.LatestVersion()))
		return
	}

	applied, err := migrator.Up(ctx)
	if err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
	log.Info("Migrations complete", zap.Int("applied", applied))
}
