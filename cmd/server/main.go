// Package main provides the entry point for the bibliomatch HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/helixir/bibliomatch-service/internal/app"
	"github.com/helixir/bibliomatch-service/internal/config"
	"github.com/helixir/bibliomatch-service/internal/observability"
	httpserver "github.com/helixir/bibliomatch-service/internal/server/http"
)

// healthService is the service name reported by the gRPC health server.
const healthService = "bibliomatch.v1.Bibliomatch"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("bibliomatch server starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	components, err := app.Build(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer components.Close()

	var local httpserver.LocalSearcher
	if components.Local != nil {
		local = components.Local
	} else {
		logger.Warn().Msg("no local dataset configured; local search disabled")
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RequestTimeout:  cfg.Server.RequestTimeout,
		LocalOptions:    components.LocalOptions,
	}
	httpSrv := httpserver.NewServer(httpCfg, components.Reconciler, local, metrics, logger)

	grpcAddr := cfg.Server.GRPCAddress()
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen on gRPC port: %w", err)
	}
	grpcServer, healthServer := newGRPCServer()
	metricsServer := newMetricsServer(cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", grpcAddr).Msg("gRPC health server starting")
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	if metricsServer != nil {
		g.Go(func() error {
			logger.Info().Str("address", metricsServer.Addr).Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	// Shutdown starts on a signal or on the first server failure.
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info().Msg("received shutdown signal")
		}
		healthServer.SetServingStatus(healthService, healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("metrics server shutdown error")
			}
		}
		stopGRPC(shutdownCtx, grpcServer, logger)
		return nil
	})

	ready := logger.Info().
		Str("grpc_address", grpcAddr).
		Str("http_address", httpCfg.Address).
		Int("providers", len(components.Registry.Enabled())).
		Bool("enrichment", components.Reconciler.EnrichmentEnabled())
	if metricsServer != nil {
		ready = ready.Str("metrics_address", metricsServer.Addr)
	}
	ready.Msg("bibliomatch is ready")

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server error")
		return err
	}
	logger.Info().Msg("bibliomatch shutdown complete")
	return nil
}

// newGRPCServer returns a server carrying only the health and reflection
// services, already reporting SERVING.
func newGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           time.Minute,
		}),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(srv)
	return srv, hs
}

// newMetricsServer returns nil when metrics are disabled.
func newMetricsServer(cfg *config.Config) *http.Server {
	if !cfg.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	return &http.Server{
		Addr:         cfg.Server.MetricsAddress(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.ReadTimeout,
	}
}

// stopGRPC drains in-flight RPCs, forcing a stop once ctx expires.
func stopGRPC(ctx context.Context, srv *grpc.Server, logger zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("gRPC server stopped gracefully")
	case <-ctx.Done():
		logger.Warn().Msg("gRPC server forced shutdown after timeout")
		srv.Stop()
	}
}
