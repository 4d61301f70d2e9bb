// Package app собирает сервис продаж из зависимостей и управляет его
// жизненным циклом: HTTP API, сервер метрик, outbox-воркер и graceful shutdown.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/medisupply/sales/internal/health"
	"github.com/medisupply/sales/internal/messaging/kafka"
	"github.com/medisupply/sales/internal/metrics"
	"github.com/medisupply/sales/internal/service/orders"
	"github.com/medisupply/sales/internal/service/outbox"
	"github.com/medisupply/sales/internal/transport/resthttp"
	"github.com/medisupply/sales/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run запускает сервис и блокируется до отмены контекста или фатальной
// ошибки HTTP-сервера.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	baseLogger := log.StandardLogger()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		baseLogger.SetLevel(level)
	} else {
		baseLogger.WithField("log_level", cfg.LogLevel).Warn("unknown log level, keeping current")
	}
	logger := baseLogger.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	orderMetrics := metrics.NewOrderMetrics()
	builder := orders.NewBuilder(
		deps.Catalog,
		deps.Inventory,
		deps.Customers,
		baseLogger.WithField("component", "order-builder"),
		orderMetrics,
	)
	service := orders.NewService(deps.Orders, builder, deps.Timeline, deps.Outbox, baseLogger, orderMetrics)

	v, _, _ := version.Info()
	healthHandler := health.NewHandler(v)
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", health.NewCheckFunc("postgres", deps.Store.Ping))
	}

	handler := resthttp.NewHandler(service, baseLogger)
	router := resthttp.NewRouter(handler, baseLogger, healthHandler, promhttp.Handler())

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	// Outbox-воркер публикует события в Kafka; без брокеров события
	// копятся в outbox со статусом pending.
	var workerDone chan struct{}
	if deps.Producer != nil {
		worker := outbox.NewWorker(
			deps.Outbox,
			kafka.NewOutboxPublisher(deps.Producer, cfg.KafkaTopic),
			outbox.WithLogger(baseLogger.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(deps.Producer, kafka.TopicDeadLetterQueue)),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		workerDone = make(chan struct{})
		go func() {
			defer close(workerDone)
			worker.Run(ctx)
		}()
	}

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP-сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		if workerDone != nil {
			<-workerDone
		}
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer поднимает отдельный HTTP-сервер для Prometheus и проб.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *health.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
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
