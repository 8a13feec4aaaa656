package swapengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/metrics"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
)

// Engine is the main orchestrator for swap operations. The backend is fixed
// at construction from the RPC endpoint's network; there is no failover.
type Engine struct {
	chain    Chain
	funds    Funds
	backend  Backend
	network  network.Network
	flags    FlagReader
	recorder Recorder
	logger   *logrus.Logger

	feeBuffer      uint64
	confirmTimeout time.Duration
	onTransition   func(Transition)
	decimalsCache  *gocache.Cache
}

// Config holds the engine's collaborators. Pool is required on devnet and
// Aggregator everywhere else.
type Config struct {
	Chain      Chain
	Funds      Funds
	Pool       PoolQuoter
	Aggregator Aggregator

	Flags    FlagReader // optional
	Recorder Recorder   // optional
	Logger   *logrus.Logger

	ConfirmTimeout time.Duration
	OnTransition   func(Transition)
}

// NewEngine creates a new swap engine with all dependencies
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Chain == nil {
		return nil, fmt.Errorf("swapengine: chain is required")
	}
	if cfg.Funds == nil {
		return nil, fmt.Errorf("swapengine: funds reader is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = constants.ConfirmTimeout
	}

	net := network.Classify(cfg.Chain.Endpoint())

	var backend Backend
	if net.IsTest() {
		if cfg.Pool == nil {
			return nil, fmt.Errorf("swapengine: pool quoter is required on %s", net)
		}
		backend = NewAMMBackend(cfg.Pool, net)
	} else {
		if cfg.Aggregator == nil {
			return nil, fmt.Errorf("swapengine: aggregator is required on %s", net)
		}
		backend = NewAggregatorBackend(cfg.Aggregator)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"network":  net.String(),
		"backend":  backend.Name(),
		"endpoint": cfg.Chain.Endpoint(),
	}).Info("swap engine ready")

	return &Engine{
		chain:          cfg.Chain,
		funds:          cfg.Funds,
		backend:        backend,
		network:        net,
		flags:          cfg.Flags,
		recorder:       cfg.Recorder,
		logger:         cfg.Logger,
		feeBuffer:      constants.FeeBufferLamports,
		confirmTimeout: cfg.ConfirmTimeout,
		onTransition:   cfg.OnTransition,
		decimalsCache:  gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// Network is the classified network of the RPC endpoint.
func (e *Engine) Network() network.Network { return e.network }

// Backend is the name of the backend serving this network.
func (e *Engine) Backend() string { return e.backend.Name() }

// GetQuote prices a swap without executing. Invalid requests fail with a
// ValidationError before any network call; every other failure is a
// QuoteUnavailableError.
func (e *Engine) GetQuote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	order, err := e.prepare(ctx, req)
	if err != nil {
		var v *ValidationError
		if errors.As(err, &v) {
			return nil, err
		}
		metrics.IncQuote(e.backend.Name(), "error")
		return nil, &QuoteUnavailableError{Backend: e.backend.Name(), Err: err}
	}
	return e.quote(ctx, order)
}

func (e *Engine) quote(ctx context.Context, order Order) (*Quote, error) {
	name := e.backend.Name()
	start := time.Now()

	q, err := e.backend.Quote(ctx, order)
	if err == nil && q == nil {
		err = errors.New("backend returned no quote")
	}
	if err != nil {
		metrics.IncQuote(name, "error")
		e.logger.WithFields(logrus.Fields{
			"backend": name,
			"input":   order.InputMint.String(),
			"output":  order.OutputMint.String(),
			"amount":  order.AmountBase,
			"error":   err,
		}).Warn("quote failed")

		var v *ValidationError
		if errors.As(err, &v) {
			return nil, err
		}
		return nil, &QuoteUnavailableError{Backend: name, Err: err}
	}

	metrics.IncQuote(name, "ok")
	e.logger.WithFields(logrus.Fields{
		"backend":    name,
		"amount_in":  q.InAmount,
		"amount_out": q.OutAmount,
		"min_out":    q.MinOutAmount,
		"took":       time.Since(start),
	}).Debug("quote")
	return q, nil
}
