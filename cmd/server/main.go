package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/parking-lot-reservation/internal/cache"
	"github.com/iliyamo/parking-lot-reservation/internal/config"
	"github.com/iliyamo/parking-lot-reservation/internal/database"
	"github.com/iliyamo/parking-lot-reservation/internal/handler"
	"github.com/iliyamo/parking-lot-reservation/internal/logging"
	"github.com/iliyamo/parking-lot-reservation/internal/queue"
	"github.com/iliyamo/parking-lot-reservation/internal/repository"
	"github.com/iliyamo/parking-lot-reservation/internal/router"
	"github.com/iliyamo/parking-lot-reservation/internal/service"
	"github.com/iliyamo/parking-lot-reservation/internal/session"
	"github.com/iliyamo/parking-lot-reservation/internal/utils"
	"github.com/iliyamo/parking-lot-reservation/internal/view"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load() // Load environment config
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("open database")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logging.Fatal().Err(err).Msg("migrate database")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	lots := repository.NewLotRepo(db)
	spots := repository.NewSpotRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)

	// Optional infrastructure: redis backs the rate limiter and the
	// occupancy cache, RabbitMQ carries parking events.  Both may be absent.
	rdb := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}
	var opts []service.Option
	if sc := cache.NewStatsCache(config.LoadStatsCacheConfig(), rdb); sc != nil {
		opts = append(opts, service.WithStatsCache(sc))
	}
	if pub := queue.NewPublisher(cfg.AMQPURL); pub != nil {
		opts = append(opts, service.WithPublisher(pub))
		logging.Info().Msg("parking events enabled")
	}

	// Services
	accounts := service.NewAccountService(users, utils.NewPasswordHasher(cfg.BcryptCost), opts...)
	booking := service.NewBookingService(db, lots, spots, reservations, payments, opts...)
	lotSvc := service.NewLotService(db, lots, spots, reservations, opts...)

	if _, err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		logging.Fatal().Err(err).Msg("ensure admin user")
	}
	if cfg.SeedSampleLots {
		if n, err := lotSvc.SeedSampleLots(ctx); err != nil {
			logging.Error().Err(err).Msg("seed sample lots")
		} else if n > 0 {
			logging.Info().Int("lots", n).Msg("sample lots created")
		}
	}

	renderer, err := view.New(time.Local)
	if err != nil {
		logging.Fatal().Err(err).Msg("parse templates")
	}

	e := router.New(router.Deps{
		Renderer: renderer,
		Sessions: session.NewManager(session.Options{
			Secret: cfg.SecretKey,
			MaxAge: cfg.SessionMaxAge,
			Secure: cfg.Env == "prod",
		}),
		Users:     users,
		Auth:      handler.NewAuthHandler(accounts),
		User:      handler.NewUserHandler(lotSvc, booking, accounts, reservations),
		Admin:     handler.NewAdminHandler(lotSvc, users, reservations),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Str("driver", cfg.DBDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown")
	}
}
