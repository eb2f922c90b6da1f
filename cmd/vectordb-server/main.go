// Command vectordb-server runs the HTTP-exposed in-memory vector
// database described in SPEC_FULL.md. On startup it attempts to load
// its persistence file; on failure it falls back to an empty store. On
// SIGINT/SIGTERM it saves and exits.
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

	apihttp "github.com/edirooss/vectordb-server/internal/api/http"
	"github.com/edirooss/vectordb-server/internal/api/http/handler"
	"github.com/edirooss/vectordb-server/internal/config"
	"github.com/edirooss/vectordb-server/internal/engine/store"
	"github.com/edirooss/vectordb-server/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	st, err := openStore(cfg, log)
	if err != nil {
		log.Error("store initialization failed", zap.Error(err))
		os.Exit(1)
	}

	vh := handler.New(log, service.NewVectorService(log, st), cfg.Dimension)
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	srv := apihttp.NewServer(addr, log, vh)

	go func() {
		log.Info("running HTTP server", zap.String("addr", addr), zap.Int("dimension", cfg.Dimension))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}

	if err := st.Save(cfg.DBFilename); err != nil {
		log.Error("save on shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

// openStore attempts to load the configured persistence file, falling
// back to an empty store (logged at Warn) on any failure — a missing
// file on first run is the common case, not an error worth failing
// startup over.
func openStore(cfg config.Config, log *zap.Logger) (*store.Store, error) {
	st, err := store.Load(cfg.DBFilename, cfg.Dimension, log)
	if err != nil {
		log.Warn("load failed, starting with an empty store",
			zap.String("path", cfg.DBFilename),
			zap.Error(err),
		)
		return store.New(cfg.Dimension, 10, log), nil
	}
	return st, nil
}

// waitForShutdown blocks until SIGINT or SIGTERM is received.
func waitForShutdown(log *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", zap.String("signal", sig.String()))
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	return zap.Must(logConfig.Build())
}
