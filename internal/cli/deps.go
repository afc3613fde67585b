package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"campusid/internal/credential"
	"campusid/internal/credential/lockout"
	lockoutstore "campusid/internal/credential/lockout/store"
	credentialstore "campusid/internal/credential/store"
	"campusid/internal/platform/config"
	"campusid/internal/platform/postgres"
	redisclient "campusid/internal/platform/redis"
	"campusid/internal/profile"
	profilestore "campusid/internal/profile/store"
	"campusid/internal/registration"
	"campusid/internal/registration/metrics"
	"campusid/internal/registration/reconcile"
	"campusid/internal/registration/service"
	httptransport "campusid/internal/transport/http"
	"campusid/pkg/platform/audit"
	"campusid/pkg/platform/audit/publisher"
	"campusid/pkg/platform/audit/store/fanout"
	"campusid/pkg/platform/audit/store/kafka"
	auditmemory "campusid/pkg/platform/audit/store/memory"
	auditpostgres "campusid/pkg/platform/audit/store/postgres"
	strs "campusid/pkg/platform/strings"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
)

// documentStore is what every profile backend provides.
type documentStore interface {
	service.ProfileStore
	ListDocuments(ctx context.Context, path string) ([]profile.Document, error)
}

// deps holds everything built from Config. Close releases it in reverse
// order of construction.
type deps struct {
	db       *sql.DB
	pool     *pgxpool.Pool
	redis    *redisclient.Client
	sink     *kafka.Sink
	registry *prometheus.Registry

	profiles   documentStore
	publisher  *publisher.Publisher
	metrics    *metrics.Metrics
	service    *registration.Service
	reconciler *reconcile.Reconciler
	checks     map[string]httptransport.HealthCheck
}

func buildDeps(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *deps, err error) {
	d := &deps{
		registry: prometheus.NewRegistry(),
		checks:   make(map[string]httptransport.HealthCheck),
	}
	defer func() {
		if err != nil {
			d.Close()
		}
	}()
	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.NeedsPostgres() {
		if d.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		d.checks["postgres"] = d.db.PingContext
	}

	var profiles documentStore
	switch cfg.ProfileBackend {
	case config.BackendPostgres:
		if d.pool, err = postgres.NewPool(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		profiles = profilestore.NewPostgres(d.pool)
	case config.BackendRedis:
		if err = d.connectRedis(ctx, cfg); err != nil {
			return nil, err
		}
		profiles = profilestore.NewRedis(d.redis.Client)
	default:
		logger.Warn("using in-memory profile store; documents are lost on exit")
		profiles = profilestore.NewInMemory()
	}

	var credentials credential.Store
	switch cfg.CredentialBackend {
	case config.BackendPostgres:
		credentials = credentialstore.NewPostgres(d.db)
	default:
		logger.Warn("using in-memory credential store; credentials are lost on exit")
		credentials = credentialstore.NewInMemory()
	}

	var auditStore audit.Store
	switch cfg.AuditBackend {
	case config.BackendPostgres:
		auditStore = auditpostgres.New(d.db)
	default:
		auditStore = auditmemory.NewInMemoryStore()
	}
	if brokers := strs.SplitList(cfg.KafkaBrokers, ","); len(brokers) > 0 {
		if d.sink, err = kafka.NewSink(brokers, cfg.AuditTopic); err != nil {
			return nil, err
		}
		if terr := d.sink.EnsureTopic(ctx, auditTopicPartitions, auditTopicReplication); terr != nil {
			logger.Warn("could not ensure audit topic", "topic", cfg.AuditTopic, "error", terr)
		}
		auditStore = fanout.New(auditStore,
			fanout.WithLogger(logger),
			fanout.WithSink("kafka", d.sink),
		)
	}

	d.publisher = publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.AuditBuffer),
		publisher.WithLogger(logger),
	)
	d.metrics = metrics.NewWithRegistry(d.registry)

	providerOpts := []credential.Option{
		credential.WithBcryptCost(cfg.BcryptCost),
		credential.WithLogger(logger),
	}
	if cfg.Lockout.Enabled {
		locks, err := d.buildLockout(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts, credential.WithLockout(locks))
	}
	provider := credential.NewProvider(credentials,
		credential.NewTokenIssuer(cfg.JWTSigningKey, cfg.IDTokenTTL),
		providerOpts...,
	)
	d.profiles = profiles
	d.service, err = registration.NewService(provider, profiles,
		service.WithLogger(logger),
		service.WithAuditPublisher(d.publisher),
		service.WithMetrics(d.metrics),
		service.WithAdminCode(cfg.AdminCode),
	)
	if err != nil {
		return nil, fmt.Errorf("build registration service: %w", err)
	}
	d.reconciler = reconcile.New(profiles,
		reconcile.WithLogger(logger),
		reconcile.WithAuditPublisher(d.publisher),
		reconcile.WithMetrics(d.metrics),
	)
	return d, nil
}

func (d *deps) connectRedis(ctx context.Context, cfg config.Config) error {
	if d.redis != nil {
		return nil
	}
	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	d.redis = client
	d.checks["redis"] = d.redis.Health
	return nil
}

// buildLockout picks Redis when redis.url is set, then Postgres when
// credentials live there, then memory.
func (d *deps) buildLockout(ctx context.Context, cfg config.Config, logger *slog.Logger) (*lockout.Service, error) {
	lockCfg := lockout.Config{
		AttemptsPerWindow: cfg.Lockout.Attempts,
		WindowDuration:    cfg.Lockout.Window,
		HardLockThreshold: cfg.Lockout.HardLockThreshold,
		HardLockDuration:  cfg.Lockout.HardLockDuration,
	}

	var locks lockout.Store
	switch {
	case cfg.Redis.URL != "":
		if err := d.connectRedis(ctx, cfg); err != nil {
			return nil, err
		}
		locks = lockoutstore.NewRedis(d.redis.Client, lockCfg)
	case cfg.CredentialBackend == config.BackendPostgres:
		locks = lockoutstore.NewPostgres(d.db)
	default:
		locks = lockoutstore.NewInMemory()
	}

	svc, err := lockout.New(locks,
		lockout.WithConfig(lockCfg),
		lockout.WithLogger(logger),
		lockout.WithAuditPublisher(d.publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("build lockout: %w", err)
	}
	return svc, nil
}

// Close drains pending audit events before closing their sinks.
func (d *deps) Close() {
	if d.publisher != nil {
		d.publisher.Close()
	}
	if d.sink != nil {
		d.sink.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.pool != nil {
		d.pool.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}

func requireDatabase(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("database_url is required (set CAMPUSID_DATABASE_URL or --database-url)")
	}
	return nil
}
