package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
)

// BalanceHandler receives every successful balance snapshot.
type BalanceHandler func(ctx context.Context, b Balances)

// BalancePoller refreshes an owner's balances on a fixed interval.
type BalancePoller struct {
	wallet     *Wallet
	owner      solana.PublicKey
	stableMint solana.PublicKey
	interval   time.Duration
	logger     *logrus.Logger

	mu      sync.Mutex
	running bool
}

type BalancePollerConfig struct {
	Wallet     *Wallet
	Owner      solana.PublicKey
	StableMint solana.PublicKey
	Interval   time.Duration
	Logger     *logrus.Logger
}

func NewBalancePoller(cfg BalancePollerConfig) *BalancePoller {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = constants.BalancePollInterval
	}
	return &BalancePoller{
		wallet:     cfg.Wallet,
		owner:      cfg.Owner,
		stableMint: cfg.StableMint,
		interval:   cfg.Interval,
		logger:     cfg.Logger,
	}
}

// Start polls immediately and then every interval until ctx ends. Failed
// polls are logged and the previous snapshot stays current for the caller.
func (p *BalancePoller) Start(ctx context.Context, handler BalanceHandler) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.WithFields(logrus.Fields{
		"owner":    p.owner.String(),
		"interval": p.interval,
	}).Info("starting balance polling")

	p.poll(ctx, handler)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx, handler)
		}
	}
}

func (p *BalancePoller) poll(ctx context.Context, handler BalanceHandler) {
	b, err := p.wallet.Snapshot(ctx, p.owner, p.stableMint)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.WithError(err).Warn("balance poll failed")
		}
		return
	}
	handler(ctx, b)
}
