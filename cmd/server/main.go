package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FGuerriero/get-volunteers-backend/internal/app"
	"github.com/FGuerriero/get-volunteers-backend/internal/cache"
	"github.com/FGuerriero/get-volunteers-backend/internal/config"
	"github.com/FGuerriero/get-volunteers-backend/internal/db"
	"github.com/FGuerriero/get-volunteers-backend/internal/llm/gemini"
	"github.com/FGuerriero/get-volunteers-backend/internal/logger"
	"github.com/FGuerriero/get-volunteers-backend/internal/notify"
	"github.com/FGuerriero/get-volunteers-backend/internal/service/matching"
	"github.com/FGuerriero/get-volunteers-backend/internal/tasks"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx := context.Background()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log)

	// LLM client is mandatory: the service is the matching pipeline.
	generator, err := gemini.NewClient(ctx, cfg, log)
	if err != nil {
		log.Error("failed to init gemini client", "err", err)
		return
	}
	log.Info("gemini client ready", "model", generator.Model())

	// Email notifications are optional.
	var notifier matching.Notifier
	if cfg.SendGrid.APIKey != "" {
		mailer, err := notify.NewMailer(cfg, log)
		if err != nil {
			log.Error("failed to init mailer", "err", err)
			return
		}
		notifier = mailer
	} else {
		log.Info("sendgrid api key not set, match notifications disabled")
	}

	engine := matching.NewService(appCtx, generator, notifier)

	dispatcher := tasks.NewDispatcher(appCtx, engine,
		cfg.Matcher.Workers, cfg.Matcher.QueueSize, cfg.Matcher.Sync)
	dispatcher.Start()

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	if cfg.Matcher.SweepOnStart {
		if err := dispatcher.SweepAll(ctx); err != nil {
			log.Error("failed to schedule startup sweep", "err", err)
		}
	}

	log.Info("matching pipeline running")

	// Block until shutdown, then give in-flight runs time to finish.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := dispatcher.Stop(stopCtx); err != nil {
		log.Error("dispatcher did not drain in time", "err", err)
	}
}
