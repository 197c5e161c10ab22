package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/layouts"
	"github.com/aretw0/layouts/internal/cli"
	httpAdapter "github.com/aretw0/layouts/pkg/adapters/http"
	"github.com/aretw0/layouts/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds the graceful shutdown of the server.
const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Start the HTTP server",
	Long: `Serves the workflows of a directory over a JSON API: sessions, layouts,
wizard navigation, drafts, Server-Sent Events and Prometheus metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := workflowDir(cmd, args)
		port, _ := cmd.Flags().GetString("port")

		logger, err := loggerFromFlags(cmd)
		if err != nil {
			return err
		}

		persistence, err := cli.OpenStore(storeOptionsFromFlags(cmd), logger)
		if err != nil {
			return err
		}
		defer persistence.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return err
		}

		opts := []layouts.Option{
			layouts.WithLifecycleHooks(observability.ChainHooks(
				metrics.Hooks(),
				observability.LogHooks(logger),
			)),
		}
		if persistence != nil {
			opts = append(opts, layouts.WithStore(persistence.Store))
			if persistence.Locker != nil {
				opts = append(opts, layouts.WithLocker(persistence.Locker))
			}
		}
		eng, err := newEngine(cmd, dir, logger, opts...)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(eng.Sessions(),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			httpAdapter.WithVersion(layouts.Version),
			httpAdapter.WithLogger(logger),
		)

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Layouts Server on %s\n", srv.Addr)
			fmt.Printf("Serving workflows from: %s %v\n", dir, eng.Catalog().Names())
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", shutdownTimeout, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Layouts Server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	addStoreFlags(serveCmd, cli.StoreMemory)
}
