// Package app wires the config into the RPC client, wallet, swap engine and
// the optional Redis/ClickHouse sinks shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/cache"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/flags"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/jupiter"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/orca"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

// App holds every long-lived dependency. Cache, Flags and Store are nil when
// their backing service is not configured or unreachable.
type App struct {
	Config  *config.Config
	Logger  *logrus.Logger
	RPC     *rpc.Client
	Wallet  *wallet.Wallet
	Engine  *swapengine.Engine
	Network network.Network
	Signer  *wallet.Keys

	Cache *cache.RedisCache
	Flags *flags.Store
	Store *cache.ClickHouseStore
}

type Options struct {
	// RequireRedis turns an unreachable Redis into an error instead of a warning
	RequireRedis bool
	OnTransition func(swapengine.Transition)
}

// NewLogger builds the text logger used by every binary.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.RPC = rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	a.Network = network.Classify(cfg.RPCUrl)

	w, err := wallet.New(wallet.Config{RPCClient: a.RPC, Logger: logger, ConfirmTimeout: cfg.ConfirmTimeout})
	if err != nil {
		return nil, err
	}
	a.Wallet = w

	if cfg.WalletPrivateKey != "" {
		keys, err := wallet.ParsePrivateKey(cfg.WalletPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("WALLET_PRIVATE_KEY: %w", err)
		}
		a.Signer = keys
	}

	if err := a.connectRedis(ctx, opts.RequireRedis); err != nil {
		return nil, err
	}
	a.connectClickHouse(ctx)

	registry, err := orca.NewRegistry(cfg.OrcaPoolConfigPath)
	if err != nil {
		return nil, err
	}

	ecfg := swapengine.Config{
		Chain:          a.RPC,
		Funds:          a.Wallet,
		Pool:           orca.NewQuoter(orca.NewClient(a.RPC, logger), registry, logger),
		Aggregator:     jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterAPIKey),
		Logger:         logger,
		ConfirmTimeout: cfg.ConfirmTimeout,
		OnTransition:   opts.OnTransition,
	}
	// interfaces stay nil rather than holding nil pointers
	if a.Flags != nil {
		ecfg.Flags = a.Flags
	}
	var swapCache swapengine.SwapCache
	var swapStore swapengine.SwapStore
	if a.Cache != nil {
		swapCache = a.Cache
	}
	if a.Store != nil {
		swapStore = a.Store
	}
	if swapCache != nil || swapStore != nil {
		ecfg.Recorder = swapengine.NewStoreRecorder(swapCache, swapStore, a.Network, logger)
	}

	a.Engine, err = swapengine.NewEngine(ecfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) connectRedis(ctx context.Context, required bool) error {
	if a.Config.RedisAddr == "" {
		if required {
			return fmt.Errorf("REDIS_ADDR is required")
		}
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rc, err := cache.NewRedisCache(pctx, cache.RedisConfig{Addr: a.Config.RedisAddr, Logger: a.Logger})
	if err != nil {
		if required {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.Logger.WithError(err).Warn("redis unavailable, swap events and flags disabled")
		return nil
	}
	fs, err := flags.NewStore(rc.Client())
	if err != nil {
		_ = rc.Close()
		return err
	}
	a.Cache, a.Flags = rc, fs
	return nil
}

func (a *App) connectClickHouse(ctx context.Context) {
	if a.Config.ClickHouseAddr == "" {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	store, err := cache.NewClickHouseStore(pctx, cache.ClickHouseConfig{
		Addr:     a.Config.ClickHouseAddr,
		Database: a.Config.ClickHouseDatabase,
		Username: a.Config.ClickHouseUsername,
		Password: a.Config.ClickHousePassword,
		Logger:   a.Logger,
	})
	if err != nil {
		a.Logger.WithError(err).Warn("clickhouse unavailable, swap records disabled")
		return
	}
	if err := store.EnsureSchema(pctx); err != nil {
		a.Logger.WithError(err).Warn("clickhouse schema setup failed, swap records disabled")
		_ = store.Close()
		return
	}
	a.Store = store
}

// RequireSigner returns the configured signing keys or an error naming the
// env var to set.
func (a *App) RequireSigner() (*wallet.Keys, error) {
	if a.Signer == nil {
		return nil, fmt.Errorf("no wallet configured: set WALLET_PRIVATE_KEY")
	}
	return a.Signer, nil
}

func (a *App) Close() {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.Store != nil {
		_ = a.Store.Close()
	}
}
