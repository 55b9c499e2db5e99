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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/lobster"
	"github.com/aretw0/lobster/internal/cli"
	"github.com/aretw0/lobster/internal/logging"
	httpAdapter "github.com/aretw0/lobster/pkg/adapters/http"
	"github.com/aretw0/lobster/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts Lobster as an HTTP server. Pipelines posted to /v1/run always run in
tool mode; stage events stream from /v1/events and metrics from /metrics.

The server listens on 127.0.0.1 and hides exec and process-backed commands
by default. There is no authentication: only use --host 0.0.0.0 together with
--allow-exec behind a trusted network boundary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		host, _ := cmd.Flags().GetString("host")
		cors, _ := cmd.Flags().GetBool("cors")
		logger := logging.New(logLevel(cmd))

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(registry)
		if err != nil {
			return err
		}
		streams := httpAdapter.NewStreamManager(logger)

		engineOpts := append(remoteOptions(cmd),
			lobster.WithLifecycleHooks(metrics.Hooks()),
			lobster.WithLifecycleHooks(streams.Hooks()),
		)
		engine, closeStore, err := cli.NewEngine(baseOptions(cmd), logger, engineOpts...)
		if err != nil {
			return err
		}
		defer closeStore()

		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithStreams(streams),
			httpAdapter.WithMetrics(registry),
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(lobster.Version),
		}
		if cors {
			handlerOpts = append(handlerOpts, httpAdapter.WithCORS())
		}

		srv := &http.Server{
			Addr:              net.JoinHostPort(host, port),
			Handler:           httpAdapter.NewHandler(engine.Remote(), handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Fprintf(os.Stderr, "Starting Lobster Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Fprintf(os.Stderr, "\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			fmt.Fprintln(os.Stderr, "Lobster Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().Bool("cors", false, "Allow cross-origin requests")
	addRemoteFlags(serveCmd)
}
