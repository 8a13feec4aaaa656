package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

// Wallet reads balances and history and sends native transfers through an
// injected RPC client. It holds no keys.
type Wallet struct {
	rpc            *rpc.Client
	logger         *logrus.Logger
	confirmTimeout time.Duration
}

type Config struct {
	RPCClient      *rpc.Client
	Logger         *logrus.Logger
	ConfirmTimeout time.Duration
}

func New(cfg Config) (*Wallet, error) {
	if cfg.RPCClient == nil {
		return nil, fmt.Errorf("wallet: RPCClient is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = constants.ConfirmTimeout
	}
	return &Wallet{
		rpc:            cfg.RPCClient,
		logger:         cfg.Logger,
		confirmTimeout: cfg.ConfirmTimeout,
	}, nil
}

// Balance returns the lamport balance of owner.
func (w *Wallet) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	lamports, err := w.rpc.GetBalance(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("getBalance: %w", err)
	}
	return lamports, nil
}

// BalanceSOL returns owner's balance in SOL.
func (w *Wallet) BalanceSOL(ctx context.Context, owner solana.PublicKey) (float64, error) {
	lamports, err := w.Balance(ctx, owner)
	if err != nil {
		return 0, err
	}
	return units.FromBaseUnitsFloat(lamports, 9), nil
}

// TokenBalance sums owner's token accounts for mint in base units. Owners
// without an account have a zero balance.
func (w *Wallet) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	accounts, err := w.rpc.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return 0, fmt.Errorf("getTokenAccountsByOwner: %w", err)
	}
	var total uint64
	for _, acc := range accounts {
		raw, err := acc.Account.Data.Parsed.Info.TokenAmount.Raw()
		if err != nil {
			return 0, err
		}
		total += raw
	}
	return total, nil
}

// AccountExists checks if an account exists on-chain.
func (w *Wallet) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	return w.rpc.AccountExists(ctx, account)
}

// Balances is a snapshot of the two assets the wallet shows.
type Balances struct {
	SOL  float64 `json:"sol"`
	USDC float64 `json:"usdc"`
}

// Snapshot reads the SOL balance and the balance of stableMint.
func (w *Wallet) Snapshot(ctx context.Context, owner, stableMint solana.PublicKey) (Balances, error) {
	sol, err := w.BalanceSOL(ctx, owner)
	if err != nil {
		return Balances{}, err
	}
	raw, err := w.TokenBalance(ctx, owner, stableMint)
	if err != nil {
		return Balances{}, err
	}
	decimals := constants.TokenDecimals[stableMint.String()]
	if decimals == 0 {
		decimals = 6
	}
	return Balances{SOL: sol, USDC: units.FromBaseUnitsFloat(raw, decimals)}, nil
}
