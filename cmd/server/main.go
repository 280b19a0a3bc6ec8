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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lanerush/api"
	"lanerush/config"
	"lanerush/network"
	"lanerush/room"
	"lanerush/score"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lanerush: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func run() error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	base, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer base.Sync()
	logger := base.Sugar()

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}

	store, err := score.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := room.NewManager(
		room.WithConfig(tuning),
		room.WithTickHz(cfg.TickHz),
		room.WithScoreRecorder(store),
		room.WithLogger(logger.Named("room")),
	)
	ws := network.NewServer(manager, network.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		SendQueue:     cfg.SendQueue,
		Logger:        logger.Named("ws"),
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewServer(store, manager, ws, logger.Named("http")).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("listening", "addr", cfg.Addr, "tick_hz", cfg.TickHz, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-signalChan:
		logger.Infow("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnw("http shutdown", "error", err)
	}
	manager.Shutdown()
	return nil
}
