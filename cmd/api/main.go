package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/server"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Warnf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// main is the entry point for the API server
// It wires the swap engine, wallet and Redis stores and serves HTTP with graceful shutdown
func main() {
	logger := app.NewLogger("info")

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger = app.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown (Ctrl+C, SIGTERM)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs flags and the recent swaps list, so the API refuses to start without it
	a, err := app.New(ctx, cfg, logger, app.Options{RequireRedis: true})
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize")
	}
	defer a.Close()

	if a.Signer == nil {
		logger.Warn("WALLET_PRIVATE_KEY not set, /v1/swap and /v1/wallet are disabled")
	} else {
		logger.WithField("address", a.Signer.Address()).Info("server wallet loaded")
	}

	h := &server.Handlers{
		Engine:   a.Engine,
		Endpoint: cfg.RPCUrl,
		Wallet:   a.Wallet,
		Signer:   a.Signer,
		Cache:    a.Cache,
		Flags:    a.Flags,
		DevMode:  cfg.DevMode,
		Logger:   logger,
	}
	// leave the interface nil when ClickHouse is off
	if a.Store != nil {
		h.Store = a.Store
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:    cfg.APIAddr,
			DevMode: cfg.DevMode,
			APIKey:  cfg.APIKey,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithFields(logrus.Fields{
		"addr":    cfg.APIAddr,
		"network": a.Network.String(),
		"backend": a.Engine.Backend(),
	}).Info("api server starting")
	if err := srv.Start(); err != nil {
		// expected during graceful shutdown
		if errors.Is(err, http.ErrServerClosed) {
			_ = srv.WaitClosed(context.Background())
			return
		}
		logger.WithError(err).Fatal("api server failed")
	}
}
