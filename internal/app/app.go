package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/douglasshinzato/price-tagger/internal/health"
	"github.com/douglasshinzato/price-tagger/internal/identity"
	"github.com/douglasshinzato/price-tagger/internal/messaging/kafka"
	"github.com/douglasshinzato/price-tagger/internal/metrics"
	"github.com/douglasshinzato/price-tagger/internal/service/lifecycle"
	"github.com/douglasshinzato/price-tagger/internal/service/outbox"
	"github.com/douglasshinzato/price-tagger/internal/transport/httpapi"
	"github.com/douglasshinzato/price-tagger/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run starts the service and blocks until the context is cancelled or a
// server fails.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	tokens, err := identity.NewTokenManager(identity.TokenConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("configure token manager: %w", err)
	}

	identitySvc := identity.NewService(storage.Directory, tokens, logger.WithField("component", "identity"))

	orderMetrics := metrics.NewOrderMetrics()
	lifecycleSvc := lifecycle.NewService(
		storage.Orders,
		storage.Directory,
		logger.WithField("component", "lifecycle"),
		lifecycle.WithOutbox(storage.Outbox),
		lifecycle.WithMetrics(orderMetrics),
	)

	// Kafka is optional: without brokers the outbox accumulates and the
	// worker stays idle.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	var wg sync.WaitGroup
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if kafkaProducer != nil {
		publisher := kafka.NewEventPublisher(kafkaProducer, cfg.KafkaTopic)
		dlq := kafka.NewEventPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		worker := outbox.NewWorker(
			storage.Outbox,
			publisher,
			outbox.WithLogger(logger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(dlq),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(workerCtx)
		}()
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if storage.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return storage.Store.Ping(checkCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiServer := httpapi.NewServer(lifecycleSvc, identitySvc, logger.WithField("component", "httpapi"))
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: apiServer.Engine()}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http server listening on %s", cfg.HTTPAddr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping http server")
		shutdownHTTP(httpSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		cancelWorker()
		wg.Wait()
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		cancelWorker()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer serves /metrics and the health probes on a separate
// port.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("metrics available at %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP stops an HTTP server gracefully.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
