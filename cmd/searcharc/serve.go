package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/searcharc/internal/api"
	"github.com/signalsfoundry/searcharc/internal/logging"
	"github.com/signalsfoundry/searcharc/internal/observability"
	"github.com/signalsfoundry/searcharc/model"
	"github.com/signalsfoundry/searcharc/store"
)

var (
	serveAddr        string
	serveMetricsAddr string
	serveRunPaths    []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve completed analyses over HTTP",
	Long: `Serve loads completed run documents into the run store and exposes them
read-only over the HTTP API, with Prometheus metrics on a separate
listener, until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			fail(err)
		}
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveAddr, "addr", "", "API listen address (default from config)")
	f.StringVar(&serveMetricsAddr, "metrics-addr", "", "Prometheus listen address (default from config)")
	f.StringArrayVar(&serveRunPaths, "run", nil, "run document to load; repeatable")
}

func runServe() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}

	addr := cfg.ServerAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	metricsAddr := cfg.MetricsAddr
	if serveMetricsAddr != "" {
		metricsAddr = serveMetricsAddr
	}

	runs := store.NewRunStore()
	unsubscribe := runs.Subscribe(func(model.Run) {
		collector.SetStoredRuns(runs.Len())
	})
	defer unsubscribe()

	loadRuns(log, runs, serveRunPaths)

	metricsSrv := serveMetrics(metricsAddr, collector, log)
	srv := api.NewServer(runs, api.WithLogger(log), api.WithMetrics(collector))

	log.Info(ctx, "starting API server", logging.String("addr", addr), logging.Int("runs", runs.Len()))
	go func() {
		if err := srv.Listen(addr); err != nil {
			log.Error(ctx, "API server exited", logging.String("error", err.Error()))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down API server")
	if err := srv.Shutdown(); err != nil {
		log.Warn(ctx, "API shutdown failed", logging.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// serveMetrics exposes the Prometheus endpoint on its own listener.
func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// loadRuns reads run documents into the store. Unreadable or duplicate
// documents are skipped with a warning, not fatal.
func loadRuns(log logging.Logger, runs *store.RunStore, paths []string) {
	ctx := context.Background()
	loaded := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn(ctx, "skipping run document", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		var run model.Run
		if err := json.Unmarshal(data, &run); err != nil {
			log.Warn(ctx, "failed to parse run document", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		if err := runs.Put(&run); err != nil {
			log.Warn(ctx, "failed to store run", logging.String("path", path), logging.String("error", err.Error()))
			continue
		}
		loaded++
	}
	if len(paths) > 0 {
		log.Info(ctx, "loaded run documents", logging.Int("loaded", loaded), logging.Int("requested", len(paths)))
	}
}
