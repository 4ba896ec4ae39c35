package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/httpapi"
	"inferd/internal/manager"
)

func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the model and serve /ping and /invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg config.Config) error {
	log := buildLogger(cfg.LogLevel)

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelPath:      cfg.ModelPath,
		ModelID:        cfg.ModelID,
		Backend:        cfg.Backend,
		Workers:        cfg.Workers,
		Threads:        cfg.Threads,
		CtxSize:        cfg.CtxSize,
		MaxQueue:       cfg.MaxQueue,
		GateWait:       cfg.GateWait.Std(),
		RequestTimeout: cfg.RequestTimeout.Std(),
		DrainTimeout:   cfg.DrainTimeout.Std(),
		ServerBin:      cfg.ServerBin,
		ServerURL:      cfg.ServerURL,
		Logger:         log,
	})

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetLogger(log)
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	if len(cfg.CORSOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{http.MethodGet, http.MethodPost, http.MethodOptions},
			[]string{"Content-Type", "X-Log-Level"})
	}

	mux := httpapi.NewMux(mgr)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	// Listen before the load so /ping answers 503 while the model comes up.
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	loadCtx, loadCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := mgr.Start(loadCtx)
	loadCancel()
	if err != nil {
		// Fatal: the process never becomes Ready on a load failure.
		shutdownServer(srv, log)
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serveErr:
		log.Error().Err(err).Msg("server error")
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout.Std())
		defer cancel()
		_ = mgr.Shutdown(drainCtx)
		return err
	}

	// Drain first: the manager flips to Draining so /ping reports 503 and new
	// invocations are rejected while in-flight ones finish.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout.Std()+5*time.Second)
	defer cancel()
	if err := mgr.Shutdown(drainCtx); err != nil {
		log.Warn().Err(err).Msg("manager shutdown")
	}
	baseCancel()
	shutdownServer(srv, log)
	return nil
}

func shutdownServer(srv *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
}

// buildLogger constructs the process logger writing JSON lines to stderr.
func buildLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
