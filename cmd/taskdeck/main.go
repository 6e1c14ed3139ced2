package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/taskdeck-dev/taskdeck/db"
	"github.com/taskdeck-dev/taskdeck/internal/auth"
	"github.com/taskdeck-dev/taskdeck/internal/config"
	"github.com/taskdeck-dev/taskdeck/internal/events"
	"github.com/taskdeck-dev/taskdeck/internal/logger"
	"github.com/taskdeck-dev/taskdeck/internal/metrics"
	"github.com/taskdeck-dev/taskdeck/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	if err := auth.InitJWT(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour); err != nil {
		zlog.Fatal("failed to initialize JWT", zap.Error(err))
	}

	if err := db.ConnectDatabase(cfg.Database.DSN()); err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.MigrateDatabase(); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	if err := db.EnsureSystemAdmin(); err != nil {
		zlog.Fatal("failed to run admin migration", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	reporter := metrics.NewReporter(m, zlog,
		time.Duration(cfg.Metrics.FlushIntervalSeconds)*time.Second)
	reporter.Start()
	defer reporter.Stop()

	hub := events.NewHub(zlog)

	r := router.NewRouter(router.Deps{
		Config:   cfg,
		Logger:   zlog,
		Metrics:  m,
		Registry: registry,
		Hub:      hub,
	})

	zlog.Info("starting server", zap.String("port", cfg.Server.Port))

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
