package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/admin-platform/internal/config"
	"github.com/iliyamo/admin-platform/internal/database"
	"github.com/iliyamo/admin-platform/internal/handler"
	"github.com/iliyamo/admin-platform/internal/ids"
	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/metrics"
	"github.com/iliyamo/admin-platform/internal/middleware"
	"github.com/iliyamo/admin-platform/internal/queue"
	"github.com/iliyamo/admin-platform/internal/ratelimit"
	"github.com/iliyamo/admin-platform/internal/repository"
	"github.com/iliyamo/admin-platform/internal/router"
	"github.com/iliyamo/admin-platform/internal/service"
	"github.com/iliyamo/admin-platform/internal/utils"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logging.Logger) error {
	if cfg.UsesDefaultSecret() && cfg.Env != "dev" {
		log.Warn(ctx, "JWT_SECRET is not set; tokens are signed with the built-in default secret", "env", cfg.Env)
	}

	// Database
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	users := repository.NewUserRepo(db)
	blacklist := repository.NewBlacklistRepo(db)
	m := metrics.New()

	revocations := service.NewRevocationStore(blacklist, log, m, nil)
	go revocations.RunJanitor(ctx, cfg.BlacklistPruneInterval)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQP.Enabled {
		async := service.NewAsyncPublisher(service.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue), 256, 10*time.Second, log)
		go async.Run(ctx)
		events = async
		go func() {
			err := queue.StartAuthEventConsumer(ctx, queue.ConsumerConfig{URL: cfg.AMQP.URL, Queue: cfg.AMQP.Queue}, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "auth-consumer: stopped", "error", err)
			}
		}()
	}

	auth := service.NewAuthService(users, utils.NewTokenIssuer(cfg.JWT), revocations,
		service.WithEvents(events),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithBcryptCost(cfg.BcryptCost),
	)
	admin := service.NewUserAdminService(users, log, cfg.BcryptCost)

	if err := service.SeedSuperAdmin(ctx, users, cfg.SeedSuperAdminEmail, cfg.SeedSuperAdminPassword, cfg.BcryptCost, log); err != nil {
		log.Warn(ctx, "seed super admin failed", "error", err)
	}

	// HTTP
	ipExtractor, err := middleware.IPExtractor(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: ids.New}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics(m))
	e.Use(middleware.Throttle(cfg.Throttle, m))

	guard := middleware.Guard(auth, log)
	router.RegisterRoutes(e, db, m)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, log), guard, authLimits(ctx, cfg, log, m))
	router.RegisterUsers(e, handler.NewUsersHandler(admin, log), guard)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "env", cfg.Env)
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

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// authLimits builds the per-endpoint limiters.  The redis backend falls
// back to the in-process store when the server cannot be reached.
func authLimits(ctx context.Context, cfg config.Config, log logging.Logger, m *metrics.Metrics) router.AuthLimits {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return router.AuthLimits{}
	}

	var store ratelimit.Store
	if rl.Backend == config.RateLimitBackendRedis {
		client, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn(ctx, "rate limit: redis unavailable, using memory store", "error", err)
		} else {
			store = ratelimit.NewRedisStore(client, rl.Prefix)
		}
	}
	if store == nil {
		store = ratelimit.NewMemoryStore(rl.SweepProbability, rl.SweepHorizon)
	}

	opts := middleware.RateLimitOptions{Logger: log, Metrics: m}
	return router.AuthLimits{
		Login:          middleware.RateLimit(store, rl.Login, opts),
		Refresh:        middleware.RateLimit(store, rl.Refresh, opts),
		ForgotPassword: middleware.RateLimit(store, rl.ForgotPassword, opts),
	}
}
