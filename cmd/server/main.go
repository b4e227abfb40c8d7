package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tollgate/internal/auth/nonce"
	"tollgate/internal/auth/signer"
	govmetrics "tollgate/internal/governance/metrics"
	govsvc "tollgate/internal/governance/service"
	govstore "tollgate/internal/governance/store"
	"tollgate/internal/ledger"
	"tollgate/internal/metadata"
	"tollgate/internal/platform/config"
	"tollgate/internal/platform/httpserver"
	"tollgate/internal/platform/kafka"
	"tollgate/internal/platform/logger"
	"tollgate/internal/platform/metrics"
	"tollgate/internal/platform/redis"
	"tollgate/internal/ratelimit"
	tokmetrics "tollgate/internal/token/metrics"
	toksvc "tollgate/internal/token/service"
	tokstore "tollgate/internal/token/store"
	"tollgate/pkg/domain"
	"tollgate/pkg/platform/audit/publisher"
	"tollgate/pkg/platform/audit/worker"
)

const (
	shutdownGrace      = 10 * time.Second
	securityBufferSize = 1024
)

// main wires dependencies and runs the HTTP server next to the outbox relay.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tollgate:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	programs, err := parsePrograms(cfg.Programs)
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg.Ledger, ledger.NewMetrics(), log)
	if err != nil {
		return err
	}
	defer be.Close()

	security := publisher.NewPublisher(be.events,
		publisher.WithAsyncBuffer(securityBufferSize),
		publisher.WithLogger(log),
	)
	defer security.Close()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	nonces := nonceStore(redisClient, log)
	limiter, err := rateLimiter(cfg.RateLimit, redisClient, log)
	if err != nil {
		return err
	}

	md := metadataRegistry(cfg.Metadata, log)

	govStore, err := govstore.New(programs)
	if err != nil {
		return err
	}
	tokStore, err := tokstore.New(programs)
	if err != nil {
		return err
	}
	tokMetrics := tokmetrics.New()
	gov := govsvc.New(be.ledger, govStore, toksvc.NewCapabilities(tokStore, md, tokMetrics),
		govsvc.WithLogger(log),
		govsvc.WithMetrics(govmetrics.New()),
	)
	tok := toksvc.New(be.ledger, tokStore, gov, md,
		toksvc.WithLogger(log),
		toksvc.WithMetrics(tokMetrics),
		toksvc.WithSecurityPublisher(security),
	)

	procMetrics := metrics.New()
	deps := routerDeps{
		cfg:        cfg,
		logger:     log,
		governance: gov,
		token:      tok,
		ledger:     be.ledger,
		events:     be.events,
		security:   security,
		verifier:   signer.NewVerifier(cfg.Auth.Audience, signer.WithMaxTTL(cfg.Auth.MaxTokenTTL)),
		nonces:     nonces,
		limiter:    limiter,
		metrics:    procMetrics,
	}
	if redisClient != nil {
		deps.redis = redisClient
	}
	router := newRouter(deps)

	log.Info("starting tollgate",
		"addr", cfg.Server.Addr,
		"environment", cfg.Server.Environment,
		"governance_program", programs.Governance.String(),
		"token_program", programs.Token.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.New(cfg.Server.Addr, router), log, shutdownGrace)
	})

	relay, closeRelay, err := outboxRelay(gctx, cfg.Kafka, be, log)
	if err != nil {
		stop()
		_ = g.Wait()
		return err
	}
	if relay != nil {
		defer closeRelay()
		g.Go(func() error {
			err := relay.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			procMetrics.IncrementBackgroundFailure("outbox_relay")
			return err
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("tollgate stopped with error", "error", err)
		return err
	}
	log.Info("tollgate stopped")
	return nil
}

func parsePrograms(cfg config.ProgramsConfig) (ledger.Programs, error) {
	gov, err := domain.ParseAddress(cfg.Governance)
	if err != nil {
		return ledger.Programs{}, fmt.Errorf("governance program: %w", err)
	}
	tok, err := domain.ParseAddress(cfg.Token)
	if err != nil {
		return ledger.Programs{}, fmt.Errorf("token program: %w", err)
	}
	programs := ledger.Programs{Governance: gov, Token: tok}
	if err := programs.Validate(); err != nil {
		return ledger.Programs{}, err
	}
	return programs, nil
}

// nonceStore uses Redis when configured so replay protection holds across
// replicas; a single process can rely on memory.
func nonceStore(client *redis.Client, log *slog.Logger) nonce.Store {
	if client == nil {
		log.Warn("redis not configured, token replay protection is per process")
		return nonce.NewMemory()
	}
	return nonce.NewRedis(client.Client)
}

// rateLimiter returns nil when limiting is disabled. With Redis the counts
// are shared and the memory store only serves while Redis is failing.
func rateLimiter(cfg config.RateLimitConfig, client *redis.Client, log *slog.Logger) (*ratelimit.Limiter, error) {
	if !cfg.Enabled {
		log.Info("rate limiting disabled")
		return nil, nil
	}
	limits := map[ratelimit.Class]ratelimit.Limit{
		ratelimit.ClassRead:  {Requests: cfg.ReadsPerWindow, Window: cfg.Window},
		ratelimit.ClassWrite: {Requests: cfg.WritesPerWindow, Window: cfg.Window},
	}
	opts := []ratelimit.Option{
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(ratelimit.NewMetrics()),
	}
	if client == nil {
		return ratelimit.New(ratelimit.NewMemoryStore(), limits, opts...)
	}
	opts = append(opts, ratelimit.WithFallback(ratelimit.NewMemoryStore()))
	return ratelimit.New(ratelimit.NewRedisStore(client.Client), limits, opts...)
}

func metadataRegistry(cfg config.MetadataConfig, log *slog.Logger) metadata.Registry {
	if cfg.URL == "" {
		log.Info("metadata registry not configured, using in-process registry")
		return metadata.NewMemory()
	}
	return metadata.NewClient(cfg.URL, cfg.Timeout, metadata.WithClientLogger(log))
}

// outboxRelay returns nil when there is nothing to relay: no brokers, or a
// memory ledger without an outbox.
func outboxRelay(ctx context.Context, cfg config.KafkaConfig, be *backend, log *slog.Logger) (*worker.Worker, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, nil
	}
	if be.outbox == nil {
		log.Warn("kafka brokers configured but the memory ledger has no outbox, relay disabled")
		return nil, nil, nil
	}
	producer, err := kafka.NewProducer(cfg.Brokers, cfg.Topic, log)
	if err != nil {
		return nil, nil, err
	}
	if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
		producer.Close()
		return nil, nil, err
	}
	w := worker.NewWorker(be.outbox, producer,
		worker.WithInterval(cfg.RelayInterval),
		worker.WithBatchSize(cfg.BatchSize),
		worker.WithLogger(log),
	)
	log.Info("outbox relay enabled", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return w, producer.Close, nil
}
