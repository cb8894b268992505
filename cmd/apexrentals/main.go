package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	bookinghandlers "apexrentals/internal/app/handlers/booking"
	"apexrentals/internal/app/middleware"
	appoutbox "apexrentals/internal/app/outbox"
	"apexrentals/internal/app/schedule"
	"apexrentals/internal/app/services/auth"
	"apexrentals/internal/app/uow"
	"apexrentals/internal/app/wiring"
	domainauth "apexrentals/internal/domain/auth"
	domainuser "apexrentals/internal/domain/user"
	"apexrentals/internal/infra/broker/kafka"
	rediscache "apexrentals/internal/infra/cache/redis"
	"apexrentals/internal/infra/config"
	mongodb "apexrentals/internal/infra/db/mongo"
	"apexrentals/internal/infra/db/postgres"
	ginserver "apexrentals/internal/infra/http/gin"
	"apexrentals/internal/infra/inbox"
	"apexrentals/internal/infra/obs"
	infraoutbox "apexrentals/internal/infra/outbox"
	"apexrentals/internal/infra/security"
	"apexrentals/internal/infra/storage/memory"
	"apexrentals/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg = config.Defaults()
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", cfg.HTTPAddr)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err, "storage", cfg.StorageDriver)
		os.Exit(1)
	}
	defer app.close(logger)

	app.runBackground(ctx, cfg, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	checks   map[string]obs.Check
	buses    wiring.Buses

	source    infraoutbox.Source
	cache     kafka.Invalidator
	inbox     kafka.Inbox
	idemPurge func(ctx context.Context) (int64, error)
	closers   []func(ctx context.Context) error
	producer  infraoutbox.Producer
}

// storage is whatever the chosen driver contributes.
type storage struct {
	uow         uow.UoWFactory
	users       domainuser.Repository
	sessions    domainauth.SessionStore
	outbox      appoutbox.Outbox
	source      infraoutbox.Source
	idempotency middleware.IdempotencyStore
	inbox       kafka.Inbox
	idemPurge   func(ctx context.Context) (int64, error)
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}

	st, err := app.openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.source = st.source
	app.inbox = st.inbox
	app.idemPurge = st.idemPurge

	var cache bookinghandlers.WindowCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.Connect(ctx, rediscache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return client.Close() })
		rc := rediscache.NewWindowCache(client, cfg.AvailabilityCacheTTL)
		app.checks["redis"] = rc.Ping
		cache = rc
	} else {
		cache = memory.NewWindowCache(cfg.AvailabilityCacheTTL)
	}
	app.cache = cache

	deps := wiring.Deps{
		UoW:          st.uow,
		Outbox:       st.outbox,
		Idempotency:  st.idempotency,
		Cache:        cache,
		EventHeaders: obs.EventHeaders,
		Currency:     cfg.Currency,
		Logger:       logger,
	}
	if cfg.S3Endpoint != "" {
		images, err := s3.NewImageStore(s3.Options{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}, logger)
		if err != nil {
			return nil, err
		}
		app.checks["s3"] = images.Ping
		deps.Images = images
	} else {
		logger.Warn("S3 endpoint not configured, image uploads disabled")
	}
	app.buses = wiring.Build(deps)

	tokens, err := newTokenIssuer(cfg, logger)
	if err != nil {
		return nil, err
	}
	hasher, err := security.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	authSvc := &auth.Service{
		Users:      st.users,
		Sessions:   st.sessions,
		Passwords:  hasher,
		Tokens:     tokens,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	cmd, qry := app.buses.Commands, app.buses.Queries
	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authSvc, Logger: logger},
		Assets:         ginserver.AssetHandler{Commands: cmd, Queries: qry, Logger: logger},
		Availability:   ginserver.AvailabilityHandler{Queries: qry, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: cmd, Queries: qry, Logger: logger},
		Me:             ginserver.MeHandler{Queries: qry, Logger: logger},
		Owner:          ginserver.OwnerHandler{Queries: qry, Logger: logger},
		Reviews:        ginserver.ReviewsHandler{Commands: cmd, Queries: qry, Logger: logger},
		Admin:          ginserver.AdminHandler{Commands: cmd, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authSvc, Logger: logger}.Handle,
	}

	producer, err := newProducer(cfg, logger)
	if err != nil {
		return nil, err
	}
	if closer, ok := producer.(interface{ Close() error }); ok {
		app.closers = append(app.closers, func(context.Context) error { return closer.Close() })
	}
	app.producer = producer
	return app, nil
}

func (app *application) openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, err
		}
		app.closers = append(app.closers, client.Close)
		app.checks["mongo"] = client.Ping
		if err := mongodb.EnsureIndexes(ctx, client.DB, cfg.IdempotencyTTL); err != nil {
			return storage{}, err
		}
		factory := mongodb.NewFactory(client.DB)
		events, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return storage{}, err
		}
		seen, err := inbox.NewStore(ctx, client.DB, cfg.KafkaConsumerGroup)
		if err != nil {
			return storage{}, err
		}
		return storage{
			uow:         factory,
			users:       factory.UsersRepo,
			sessions:    mongodb.NewSessionStore(client.DB),
			outbox:      events,
			source:      events,
			idempotency: mongodb.NewIdempotencyStore(client.DB),
			inbox:       seen,
		}, nil
	case config.StoragePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return storage{}, err
		}
		app.closers = append(app.closers, func(context.Context) error { return db.Close() })
		app.checks["postgres"] = pingSQL(db)
		factory := postgres.NewFactory(db)
		events := postgres.NewOutbox(db)
		idem := postgres.NewIdempotencyStore(db, cfg.IdempotencyTTL)
		return storage{
			uow:         factory,
			users:       factory.UsersRepo,
			sessions:    postgres.NewSessionStore(db),
			outbox:      events,
			source:      events,
			idempotency: idem,
			inbox:       inbox.NewMemory(),
			idemPurge:   idem.Purge,
		}, nil
	default:
		if cfg.StorageDriver != config.StorageMemory {
			logger.Warn("unknown storage driver, using memory", "driver", cfg.StorageDriver)
		}
		factory := memory.NewFactory()
		events := memory.NewOutbox()
		return storage{
			uow:         factory,
			users:       factory.UsersRepo,
			sessions:    memory.NewSessionStore(),
			outbox:      events,
			source:      events,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			inbox:       inbox.NewMemory(),
		}, nil
	}
}

// runBackground starts the outbox relay, the cache invalidation consumer and
// the cron jobs. All of them stop with ctx.
func (app *application) runBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	worker := &infraoutbox.Worker{
		Source:      app.source,
		Producer:    app.producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	if len(cfg.KafkaBrokers) > 0 {
		handler := &kafka.CacheInvalidator{Cache: app.cache, Inbox: app.inbox, Logger: logger}
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, handler, logger)
		if err != nil {
			logger.Error("kafka consumer disabled", "error", err)
		} else {
			app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
			go func() {
				if err := consumer.Run(ctx, kafka.Topics(cfg.KafkaTopicPrefix)); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("kafka consumer stopped", "error", err)
				}
			}()
		}
	}

	scheduler := schedule.New(logger, time.Minute)
	if err := scheduler.Add("cleanup-expired-bookings", cfg.CleanupSchedule, schedule.CleanupExpiredJob(app.buses.Commands, logger)); err != nil {
		logger.Error("cleanup job not scheduled", "error", err, "spec", cfg.CleanupSchedule)
	}
	if app.idemPurge != nil {
		purge := app.idemPurge
		err := scheduler.Add("purge-idempotency-keys", "@every 1h", func(ctx context.Context) error {
			n, err := purge(ctx)
			if err == nil && n > 0 {
				logger.Info("expired idempotency keys purged", "deleted", n)
			}
			return err
		})
		if err != nil {
			logger.Error("purge job not scheduled", "error", err)
		}
	}
	go func() {
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", "error", err)
		}
	}()
}

func (app *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func newProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka brokers not configured, events go to the log")
		return infraoutbox.LogProducer{Logger: logger}, nil
	}
	return kafka.NewProducer(cfg.KafkaBrokers, "apexrentals")
}

func newTokenIssuer(cfg config.Config, logger *slog.Logger) (*security.JWTIssuer, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		random, err := security.RandomTokenGenerator{}.NewToken()
		if err != nil {
			return nil, err
		}
		logger.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
		secret = random
	}
	return security.NewJWTIssuer(secret, "apexrentals")
}

func pingSQL(db *sqlx.DB) obs.Check {
	return func(ctx context.Context) error { return db.PingContext(ctx) }
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
