package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-pm/meridian/internal/app"
	"github.com/meridian-pm/meridian/internal/auth"
	"github.com/meridian-pm/meridian/internal/authz"
	"github.com/meridian-pm/meridian/internal/invoices"
	"github.com/meridian-pm/meridian/internal/platform/cache"
	"github.com/meridian-pm/meridian/internal/platform/db"
	"github.com/meridian-pm/meridian/internal/settings"
	"github.com/meridian-pm/meridian/internal/shared"
	"github.com/meridian-pm/meridian/internal/users"
	"github.com/meridian-pm/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool)

	var settingStore authz.SettingStore
	if cfg.SettingsBackend == "redis" {
		settingStore = settings.NewRedisStore(redisClient)
	} else {
		settingStore = settings.NewRepository(pool)
	}
	resolver := authz.NewResolver(settingStore, logger)

	usersRepo := users.NewRepository(pool)
	accessMW := authz.Middleware{Resolver: resolver, Roles: usersRepo, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	accessHandler := authz.NewHandler(logger, resolver, auditLogger, accessMW).WithSnapshots(jobClient)

	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, resolver, accessMW)

	invoiceRepo := invoices.NewRepository(pool)
	invoiceService := invoices.NewService(invoiceRepo, resolver, logger)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, accessMW)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		AccessHandler:  accessHandler,
		UsersHandler:   usersHandler,
		InvoiceHandler: invoiceHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
