package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/app"
	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type options struct {
	configPath      string
	once            bool
	compactSessions bool
}

func main() {
	var opts options

	cmd := &cobra.Command{
		Use:           "worker",
		Short:         "Notification dispatcher",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a config file")
	cmd.Flags().BoolVar(&opts.once, "once", false, "run a single drain cycle and exit")
	cmd.Flags().BoolVar(&opts.compactSessions, "compact-sessions", false, "remove expired sessions before dispatching")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupHealthCheck(port int, ready *atomic.Bool, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "health check server failed")
		}
	}()
	return srv
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}).With("component", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	cleanup := worker.NewSessionCleanupWorker(a.Sessions, cfg.Worker.SessionCleanupInterval, log)
	if opts.compactSessions {
		cleanup.Cleanup(ctx)
	}

	if opts.once {
		res, err := a.Dispatcher.Drain(ctx)
		if err != nil {
			return err
		}
		log.Info("drain finished", "skipped", res.Skipped, "processed", res.Processed, "sent", res.Sent, "failed", res.Failed)
		return nil
	}

	var ready atomic.Bool
	health := setupHealthCheck(cfg.Worker.HealthPort, &ready, log)
	ready.Store(true)

	if cfg.Worker.SessionCleanupInterval > 0 {
		go cleanup.Start(ctx)
	}
	a.Dispatcher.Run(ctx)
	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return health.Shutdown(shutdownCtx)
}
