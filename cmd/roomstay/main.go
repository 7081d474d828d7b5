package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"roomstay/internal/app/bootstrap"
	"roomstay/internal/app/middleware"
	appoutbox "roomstay/internal/app/outbox"
	"roomstay/internal/app/policies"
	"roomstay/internal/app/uow"
	domaincatalog "roomstay/internal/domain/catalog"
	"roomstay/internal/infra/broker/kafka"
	"roomstay/internal/infra/broker/rabbitmq"
	"roomstay/internal/infra/catalogsync"
	"roomstay/internal/infra/config"
	mongodb "roomstay/internal/infra/db/mongo"
	ginserver "roomstay/internal/infra/http/gin"
	"roomstay/internal/infra/inbox"
	lockmemory "roomstay/internal/infra/lock/memory"
	lockredis "roomstay/internal/infra/lock/redis"
	"roomstay/internal/infra/obs"
	infraoutbox "roomstay/internal/infra/outbox"
	"roomstay/internal/infra/payments"
	"roomstay/internal/infra/storage/memory"
	"roomstay/internal/infra/validation"
)

const serviceName = "roomstay"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("roomstay stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("roomstay stopped")
}

// closers run in reverse registration order on shutdown.
type closers []func(context.Context) error

func (c *closers) add(fn func(context.Context) error) { *c = append(*c, fn) }

func (c closers) closeAll(ctx context.Context, logger *slog.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

// relayOutbox is written by command handlers and drained by the relay.
type relayOutbox interface {
	appoutbox.Outbox
	infraoutbox.Source
}

type storage struct {
	factory     uow.UoWFactory
	outbox      relayOutbox
	idempotency middleware.IdempotencyStore
	catalog     domaincatalog.Writer
	inbox       catalogsync.Inbox
	ready       func(context.Context) error
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var cleanup closers
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cleanup.closeAll(shutdownCtx, logger)
	}()

	tracer, shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	cleanup.add(shutdownTracer)

	st, err := openStorage(ctx, cfg, logger, &cleanup)
	if err != nil {
		return err
	}

	if cfg.CatalogFixtures != "" {
		n, err := catalogsync.LoadFixtures(ctx, cfg.CatalogFixtures, st.catalog, cfg.Currency)
		if err != nil {
			return fmt.Errorf("load catalog fixtures: %w", err)
		}
		logger.Info("catalog fixtures loaded", "path", cfg.CatalogFixtures, "records", n)
	}

	locker, err := openLocker(cfg, logger, &cleanup)
	if err != nil {
		return err
	}

	buses := bootstrap.Build(bootstrap.Deps{
		UoWFactory:   st.factory,
		Outbox:       st.outbox,
		Idempotency:  st.idempotency,
		Locker:       locker,
		Gateway:      payments.SimulatedGateway{},
		Validator:    validation.New(),
		Clock:        policies.SystemClock{},
		Tracer:       tracer,
		Logger:       logger,
		RefundPolicy: cfg.RefundPolicyValue(),
		RetryBackoff: cfg.RetryBackoff,
		IdempTTL:     cfg.IdempTTL,
	})

	errCh := make(chan error, 3)
	if err := startOutboxRelay(ctx, cfg, st.outbox, logger, &cleanup, errCh); err != nil {
		return err
	}
	if err := startCatalogConsumer(ctx, cfg, st, logger, &cleanup, errCh); err != nil {
		return err
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: st.ready}, ginserver.Handlers{
		Booking:        ginserver.BookingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Room:           ginserver.RoomHandler{Queries: buses.Queries, Logger: logger},
		Discount:       ginserver.DiscountHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		Me:             ginserver.MeHandler{Queries: buses.Queries, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Secret: []byte(cfg.JWTSecret), Logger: logger}.Handle,
	})
	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.Storage, "broker", cfg.Broker, "locker", cfg.Locker)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	return runErr
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, cleanup *closers) (storage, error) {
	if cfg.Storage != "mongo" {
		store := memory.NewStore()
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage{
			factory:     store,
			outbox:      store.Outbox(),
			idempotency: memory.NewIdempotencyStore(),
			catalog:     store,
			inbox:       inbox.NewMemoryStore(),
			ready:       func(context.Context) error { return nil },
		}, nil
	}

	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB, 10*time.Second)
	if err != nil {
		return storage{}, fmt.Errorf("connect mongo: %w", err)
	}
	cleanup.add(client.Close)
	if err := mongodb.EnsureIndexes(ctx, client.DB); err != nil {
		return storage{}, fmt.Errorf("ensure indexes: %w", err)
	}
	outboxStore, err := infraoutbox.NewStore(ctx, client.DB)
	if err != nil {
		return storage{}, fmt.Errorf("outbox store: %w", err)
	}
	inboxStore, err := inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		return storage{}, fmt.Errorf("inbox store: %w", err)
	}
	logger.Info("mongo storage ready", "database", cfg.MongoDB)
	return storage{
		factory:     mongodb.NewFactory(client.DB),
		outbox:      outboxStore,
		idempotency: mongodb.NewIdempotencyStore(client.DB),
		catalog:     mongodb.NewCatalogRepository(client.DB),
		inbox:       inboxStore,
		ready:       client.Ping,
	}, nil
}

func openLocker(cfg config.Config, logger *slog.Logger, cleanup *closers) (policies.Locker, error) {
	if cfg.Locker != "redis" {
		return lockmemory.NewLocker(), nil
	}
	client := lockredis.NewClient(cfg.RedisAddr)
	cleanup.add(func(context.Context) error { return client.Close() })
	return &lockredis.Locker{Client: client, TTL: cfg.LockTTL, Prefix: serviceName + ":", Logger: logger}, nil
}

func startOutboxRelay(ctx context.Context, cfg config.Config, source infraoutbox.Source, logger *slog.Logger, cleanup *closers, errCh chan<- error) error {
	var producer infraoutbox.Producer
	switch cfg.Broker {
	case "kafka":
		p, err := kafka.NewProducer(cfg.KafkaBrokers, serviceName)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		cleanup.add(func(context.Context) error { return p.Close() })
		producer = p
	case "rabbitmq":
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return fmt.Errorf("rabbitmq publisher: %w", err)
		}
		cleanup.add(func(context.Context) error { return p.Close() })
		producer = p
	default:
		logger.Info("outbox relay disabled", "broker", cfg.Broker)
		return nil
	}
	worker := &infraoutbox.Worker{
		Store:       source,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      serviceName,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("outbox relay: %w", err)
		}
	}()
	return nil
}

func startCatalogConsumer(ctx context.Context, cfg config.Config, st storage, logger *slog.Logger, cleanup *closers, errCh chan<- error) error {
	if !cfg.CatalogConsumerEnabled() {
		return nil
	}
	handler := &catalogsync.Handler{Catalog: st.catalog, Inbox: st.inbox, Currency: cfg.Currency, Logger: logger}
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, handler, logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	cleanup.add(func(context.Context) error { return consumer.Close() })
	go func() {
		logger.Info("catalog consumer starting", "topics", cfg.KafkaCatalogTopics, "group", cfg.KafkaGroupID)
		if err := consumer.Run(ctx, cfg.KafkaCatalogTopics); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("catalog consumer: %w", err)
		}
	}()
	return nil
}
