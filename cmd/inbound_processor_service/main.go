package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/aradsms/inbox_services/internal/inbox_service/app"
	"github.com/aradsms/inbox_services/internal/inbox_service/repository/postgres"
	"github.com/aradsms/inbox_services/internal/platform/config"
	"github.com/aradsms/inbox_services/internal/platform/database"
	"github.com/aradsms/inbox_services/internal/platform/logger"
	"github.com/aradsms/inbox_services/internal/platform/messagebroker"
)

const (
	serviceName     = "inbound_processor_service"
	queueGroup      = "inbound_processor_group"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...",
		"nats_url", cfg.NATSUrl,
		"metrics_port", cfg.InboundProcessorMetricsPort,
		"grpc_port", cfg.InboundProcessorGRPCPort,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if cfg.AutoMigrate {
		if err := database.ApplySchema(mainCtx, dbPool); err != nil {
			appLogger.Error("Failed to apply database schema", "error", err)
			os.Exit(1)
		}
	}

	nc, err := messagebroker.NewNATSClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	messageRepo := postgres.NewPgMessageRepository(dbPool, cfg.StorageTimeout, appLogger)

	buffer := cfg.InboundProcessorWorkerBuffer
	if buffer <= 0 {
		buffer = 100
	}
	inboundEvents := make(chan app.InboundSMSEvent, buffer)
	consumer := app.NewInboundConsumer(nc, appLogger, inboundEvents)
	processor := app.NewInboundProcessor(messageRepo, appLogger)

	healthServer := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.InboundProcessorGRPCPort))
	if err != nil {
		appLogger.Error("Failed to listen for gRPC", "error", err)
		os.Exit(1)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.InboundProcessorMetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("Starting NATS consumer", "subject", app.SubjectInboundRawAll, "queue_group", queueGroup)
		return consumer.StartConsuming(groupCtx, app.SubjectInboundRawAll, queueGroup)
	})

	g.Go(func() error {
		return processor.Run(groupCtx, inboundEvents)
	})

	g.Go(func() error {
		appLogger.Info("gRPC health server starting", "addr", grpcListener.Addr().String())
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		appLogger.Info("Metrics server starting", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics serve: %w", err)
		}
		return nil
	})

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	appLogger.Info("Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		appLogger.Error("A component stopped, initiating shutdown")
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	mainCancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Metrics server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Component failed", "error", err)
	}
	appLogger.Info("Service shutdown complete.")
}
