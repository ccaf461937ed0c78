package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"tradesim/configs"
	"tradesim/internal/database"
	delivery "tradesim/internal/delivery/http"
	"tradesim/internal/infra"
	"tradesim/internal/logger"
	"tradesim/internal/metrics"
	"tradesim/internal/repository"
	"tradesim/internal/service"
	"tradesim/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found, using environment variables")
	}

	cfg := configs.Load()

	log := logger.New(cfg.Server.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	startingCash, err := decimal.NewFromString(cfg.Trading.StartingCash)
	if err != nil {
		log.Error("invalid STARTING_CASH", "value", cfg.Trading.StartingCash, "err", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Initialize services
	quoteService := service.NewQuoteService(cfg.Quote.URL, cfg.Quote.Timeout)
	accountService := usecase.NewAccountService(userRepo, sessionRepo, startingCash, cfg.Session.TTL)
	tradingService := usecase.NewTradingService(ledgerRepo, quoteService)

	metrics.Init()

	// Purge expired sessions every 15 minutes
	cronScheduler := cron.New()
	_, err = cronScheduler.AddFunc("*/15 * * * *", func() {
		purgeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		removed, err := sessionRepo.PurgeExpired(purgeCtx)
		if err != nil {
			log.Error("session purge failed", "err", err)
			return
		}
		if removed > 0 {
			log.Info("purged expired sessions", "count", removed)
		}
	})
	if err != nil {
		log.Error("failed to add session purge cron job", "err", err)
		os.Exit(1)
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// Web server
	templates, err := delivery.ParseTemplates()
	if err != nil {
		log.Error("failed to parse templates", "err", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	secureCookies := cfg.Server.Env == "production"
	webHandler := delivery.NewWebHandler(templates, accountService, tradingService, secureCookies)
	delivery.SetupRoutes(e, &delivery.RouterConfig{
		WebHandler: webHandler,
		Sessions:   sessionRepo,
	})

	// Ops server: health and metrics on a separate port
	ops := newOpsRouter(db)
	opsSrv := &http.Server{
		Addr:              ":" + cfg.Server.OpsPort,
		Handler:           ops,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("ops server starting", "port", cfg.Server.OpsPort)
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("ops server", "err", err)
		}
	}()

	go func() {
		log.Info("web server starting", "port", cfg.Server.Port, "env", cfg.Server.Env)
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error("web server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown", "err", err)
	}
	if err := opsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("ops server shutdown", "err", err)
	}

	log.Info("server exited gracefully")
}

func newOpsRouter(db *pgxpool.Pool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
