// Package main wires the HTTP server for the task hub service.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"taskhub/internal/transport/http/server/handlers-fiber"
	"taskhub/internal/usecase"

	"taskhub/config"
	"taskhub/internal/auth"
	"taskhub/internal/ratelimit"
	"taskhub/internal/repository"
	"taskhub/internal/storage"
	"taskhub/internal/transport/http/middleware"
	"taskhub/internal/worker"
	"taskhub/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}

	repo, err := repository.New(ctx, "postgres", log, cfg)
	if err != nil {
		log.Errorw("repository initialization error", "error", err)
		return
	}
	if err := repo.OnStart(ctx); err != nil {
		log.Errorw("repository start error", "error", err)
		return
	}
	defer func() {
		_ = repo.OnStop(context.Background())
	}()

	tokens := auth.New(cfg.JWT)

	timeout := cfg.HTTP.RequestTimeout
	uc := usecase.New(log, ctx, repo, tokens, timeout, cfg.Worker.MaxAttempts)

	if err := uc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		log.Errorw("bootstrap admin error", "error", err)
		return
	}

	store, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		log.Errorw("object storage initialization error", "error", err)
		return
	}

	pool := worker.New(log, repo, store, cfg.Worker)
	pool.Start(ctx)

	janitor := worker.NewJanitor(log, repo, cfg.Worker)
	janitor.Start(ctx)

	limiter := ratelimit.New(cfg.RateLimit)
	if cfg.RateLimit.Enabled {
		go limiter.Run(ctx)
	}

	serv := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTP.RequestTimeout,
		WriteTimeout: cfg.HTTP.RequestTimeout,
	})
	serv.Use(recover.New())
	serv.Use(requestid.New())
	serv.Use(cors.New(cors.Config{AllowOrigins: cfg.CORS.AllowOrigins}))
	serv.Use(middleware.RequestLogger(log))

	// Registered above the limiter so probes are never throttled.
	serv.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	if cfg.RateLimit.Enabled {
		serv.Use(middleware.RateLimit(limiter, nil))
	}

	h := handlers_fiber.NewHandler(log, uc)
	handlers_fiber.Register(serv, h, middleware.Authn(log, tokens))

	go func() {
		if err := serv.Listen(cfg.ServerAddr()); err != nil {
			log.Errorw("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = serv.Shutdown()
		pool.Stop()
		janitor.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warnw("server shutdown timeout", "timeout", cfg.Server.ShutdownTimeout)
	}
}
