// Package main provides the ragmesh binary entry point. The serve command
// runs the orchestrator's HTTP front door over a configured agent fleet.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/ragmesh"
	"github.com/hupe1980/ragmesh/client"
	"github.com/hupe1980/ragmesh/config"
	"github.com/hupe1980/ragmesh/health"
	"github.com/hupe1980/ragmesh/logging"
	"github.com/hupe1980/ragmesh/metrics"
	"github.com/hupe1980/ragmesh/server"
)

const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ragmesh",
		Short:         "RAG pipeline workflow orchestrator",
		Long:          "Ragmesh coordinates a fleet of retrieval-augmented generation agents\ninto query, ingestion and batch-ingestion workflows.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(serveCmd())

	return cmd
}

func serveCmd() *cobra.Command {
	var (
		configPath string
		port       int
		stub       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port > 0 {
				cfg.Port = port
			}

			return serve(cmd.Context(), cfg, stub)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	cmd.Flags().BoolVar(&stub, "stub-agents", false, "serve canned agent responses instead of calling live agents")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, stub bool) error {
	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, false).
		WithComponent("server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	orchestrator := ragmesh.New(cfg.Agents, func(o *ragmesh.Options) {
		o.Logger = logger
		o.Metrics = recorder
		o.StageTimeout = cfg.StageTimeout
		o.BatchConcurrency = cfg.BatchConcurrency

		if stub {
			o.Invoker = client.NewStubInvoker()
		}

		if cfg.RetryAttempts > 1 {
			retry := client.DefaultRetryConfig()
			retry.MaxAttempts = cfg.RetryAttempts
			o.Retry = &retry
		}
	})

	checker := health.NewChecker(cfg.Agents, func(o *health.Options) {
		o.Timeout = cfg.HealthTimeout
		o.Logger = logger
	})

	handler := server.New(orchestrator, func(o *server.Options) {
		o.Logger = logger
		o.Checker = checker
		o.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}).Handler()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("orchestrator listening addr=%s agents=%d stub=%t", httpServer.Addr, len(cfg.Agents), stub)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
