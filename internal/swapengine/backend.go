package swapengine

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/txsign"
)

// Backend is one way of trading: a direct pool or an aggregator.
type Backend interface {
	Name() string
	Quote(ctx context.Context, order Order) (*Quote, error)
	// Build returns the unsigned transaction for a quote this backend produced.
	Build(ctx context.Context, owner solana.PublicKey, q *Quote) (txsign.Envelope, error)
	SendOptions() rpc.SendOptions
}

// Chain is the subset of the RPC client the engine submits through.
type Chain interface {
	Endpoint() string
	GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts rpc.SendOptions) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, commitment string, timeout time.Duration) (*rpc.SignatureStatus, error)
}

// Funds reads balances. *wallet.Wallet implements it.
type Funds interface {
	Balance(ctx context.Context, owner solana.PublicKey) (uint64, error)
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
}

// FlagReader reports feature flags. A missing flag must read as false.
type FlagReader interface {
	Enabled(ctx context.Context, key string) (bool, error)
}

// Recorder receives every finished execute.
type Recorder interface {
	Record(ctx context.Context, req SwapRequest, res *SwapResult)
}

func retries(n uint) *uint { return &n }
