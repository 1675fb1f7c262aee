package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"company-matching/internal/activity"
	awsclient "company-matching/internal/common/aws"
	"company-matching/internal/common/camunda"
	"company-matching/internal/common/config"
	"company-matching/internal/common/database"
	"company-matching/internal/common/logger"
	"company-matching/internal/common/messaging"
	"company-matching/internal/common/observability"
	"company-matching/internal/matching"
	"company-matching/internal/repository"

	fcm "company-matching/internal/workers/matching/find-company-matches"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console", "stderr")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("app", cfg.App.Name), zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	ctx := context.Background()

	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	store := repository.NewPostgresStore(pg.DB)
	checks := []readinessCheck{
		{name: "postgres", check: pg.Ping},
		{name: "zeebe", check: zeebe.HealthCheck},
	}

	var repo matching.CompanyRepository = store

	if cfg.Matching.CandidateSource == "elasticsearch" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Database.Elasticsearch.CompanyIndex))

		source := repository.NewElasticCandidateSource(esClient.Client, cfg.Database.Elasticsearch.CompanyIndex, store)
		repo = repository.WithCandidates(store, source)
		checks = append(checks, readinessCheck{name: "elasticsearch", check: esClient.Ping})
	}

	if ttl := cfg.Matching.ProfileCacheDuration(); ttl > 0 {
		redis := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully", zap.Duration("profileCacheTTL", ttl))

		repo = repository.NewCachedProfiles(repo, redis.Client, ttl, log)
		checks = append(checks, readinessCheck{name: "redis", check: redis.Ping})
	}

	var sinks []activity.Sink
	if cfg.Matching.Activity.Postgres {
		sinks = append(sinks, activity.NewPostgresSink(store))
	}

	if sns := cfg.Integrations.AWS.SNS; sns.Enabled {
		snsClient, err := awsclient.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		sinks = append(sinks, activity.NewSNSSink(snsClient, sns.TopicARN))
		zapLog.Info("SNS activity sink enabled", zap.String("topic", sns.TopicARN))
	}

	var natsClient *messaging.NATSClient
	if natsCfg := cfg.Messaging.NATS; natsCfg.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			natsClient, err = messaging.NewNATSClient(messaging.NATSConfig{
				URL:           natsCfg.URL,
				Name:          natsCfg.Name,
				ReconnectWait: config.GetDuration(natsCfg.ReconnectWait),
				MaxReconnects: natsCfg.MaxReconnects,
			}, log)
			return err
		}, 10, 2*time.Second, zapLog, "NATS connection")
		if err != nil {
			zapLog.Fatal("nats failed after retries", zap.Error(err))
		}
		sinks = append(sinks, activity.NewNATSSink(natsClient, natsCfg.Subject))
		checks = append(checks, readinessCheck{name: "nats", check: func(context.Context) error {
			if !natsClient.Connected() {
				return fmt.Errorf("nats not connected")
			}
			return nil
		}})
	}

	dispatcher := activity.NewDispatcher(activity.Config{
		BufferSize:     cfg.Matching.Activity.BufferSize,
		PublishTimeout: config.GetDuration(cfg.Matching.Activity.PublishTimeout),
	}, log, sinks...)

	engine := matching.NewEngine(matching.Config{
		DefaultLimit:     cfg.Matching.DefaultLimit,
		MaxLimit:         cfg.Matching.MaxLimit,
		PoolCap:          cfg.Matching.PoolCap,
		ScoringWorkers:   cfg.Matching.ScoringWorkers,
		SlowRunThreshold: config.GetDuration(cfg.Matching.SlowRunThreshold),
	}, repo, store, dispatcher, log)

	handler, err := fcm.NewHandler(fcm.HandlerOptions{
		AppConfig:     cfg,
		Engine:        engine,
		Camunda:       zeebe,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create find-company-matches handler", zap.Error(err))
	}
	if err := handler.Register(); err != nil {
		zapLog.Fatal("failed to register find-company-matches worker", zap.Error(err))
	}
	zapLog.Info("Matching worker ready", zap.Int("activitySinks", len(sinks)))

	server := newHealthServer(cfg.Observability.HealthPort, checks, zapLog)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handler.Close()

	if err := dispatcher.Close(shutdownCtx); err != nil {
		zapLog.Warn("Activity dispatcher did not drain", zap.Error(err))
	}
	if natsClient != nil {
		natsClient.Close()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
