package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"                        // optional .env file
	"github.com/labstack/echo/v4"                     // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"   // request id, recover, timeout
	"go.uber.org/zap"                                 // structured logging

	"github.com/iliyamo/cinema-ticketing/internal/clock"
	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/database"
	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/logger"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/router"
	"github.com/iliyamo/cinema-ticketing/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env if present, ignore error

	cfg := config.Load() // Load environment config
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Storage ----
	db, err := database.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if _, err := database.NewMigrator(db, log).Up(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	tx := repository.NewTxManager(db)
	movieRepo := repository.NewMovieRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	// ---- Events ----
	publisher, err := queue.NewPublisher(cfg.Events, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	if cfg.Events.TicketLogConsumer {
		consumer := queue.NewTicketLogConsumer(cfg.Events.RabbitURL, cfg.Events.RabbitQueue, cfg.Events.TicketLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("ticket log consumer", zap.Error(err))
			}
		}()
	}

	// ---- Services ----
	clk := clock.System{}
	booking := service.NewBookingService(sessionRepo, movieRepo, tx, clk, cfg.TimeZone, log)
	catalog := service.NewCatalogService(movieRepo, sessionRepo, booking, tx, log)
	tickets := service.NewTicketService(ticketRepo, movieRepo, booking, publisher, clk, log)
	users := service.NewUserService(userRepo, tickets, catalog, cfg.BcryptCost, log)
	auth := service.NewAuthService(users, tokenRepo, tx, service.TokenSettings{
		Secret:         cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	}, log)

	if err := auth.EnsureInitialManager(ctx, cfg.InitialManagerEmail, cfg.InitialManagerPassword); err != nil {
		return err
	}

	// ---- Redis (optional) ----
	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	// ---- HTTP ----
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, handler.NewHealthHandler(db))
	router.RegisterAuth(e, handler.NewAuthHandler(auth, users), handler.NewUserHandler(users), cfg.JWTSecret)
	router.RegisterCatalog(e, handler.NewMovieHandler(catalog, booking, cache), cache, cfg.JWTSecret)
	router.RegisterTickets(e, handler.NewTicketHandler(tickets, users), cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("db", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
