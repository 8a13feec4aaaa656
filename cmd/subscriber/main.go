package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/cache"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
)

// subscriber tails executed-swap events published by the API and CLI.
func main() {
	walletAddr := flag.String("wallet", "", "only show swaps by this wallet")
	backend := flag.String("backend", "", "only show swaps routed through this backend (orca, jupiter)")
	flag.Parse()

	_, filename, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), "../..", ".env"))

	cfg := config.Load()
	logger := app.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Logger: logger})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer rc.Close()

	channel := constants.PubSubChannelSwaps
	switch {
	case *walletAddr != "":
		channel = constants.PubSubWalletPrefix + *walletAddr
	case *backend != "":
		channel = constants.PubSubBackendPrefix + *backend
	}

	events, err := rc.SubscribeSwaps(ctx, channel)
	if err != nil {
		logger.WithError(err).Fatal("subscribe failed")
	}

	logger.WithField("channel", channel).Info("subscriber running, Ctrl+C to stop")
	for ev := range events {
		logger.WithFields(logrus.Fields{
			"signature":  ev.Signature,
			"wallet":     ev.Wallet,
			"network":    ev.Network,
			"backend":    ev.Backend,
			"pair":       ev.Pair,
			"amount_in":  ev.AmountIn,
			"amount_out": ev.AmountOut,
			"price":      ev.Price,
		}).Info("swap executed")
	}
	logger.Info("subscriber stopped")
}
