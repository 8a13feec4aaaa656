package swapengine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/orca"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/txsign"
)

const BackendOrca = "orca"

// PoolQuoter is implemented by *orca.Quoter.
type PoolQuoter interface {
	FindPool(inputMint, outputMint solana.PublicKey) (*orca.Pool, error)
	Quote(ctx context.Context, pool *orca.Pool, inputMint solana.PublicKey, amountIn uint64, slippageBps uint16) (*orca.SwapQuote, error)
	BuildSwap(ctx context.Context, owner solana.PublicKey, quote *orca.SwapQuote) (*orca.BuildResult, error)
}

// AMMBackend trades directly against a registered pool. It only serves the
// test network.
type AMMBackend struct {
	quoter      PoolQuoter
	network     network.Network
	slippageBps uint16
}

func NewAMMBackend(quoter PoolQuoter, net network.Network) *AMMBackend {
	return &AMMBackend{quoter: quoter, network: net, slippageBps: constants.AMMSlippageBps}
}

func (b *AMMBackend) Name() string { return BackendOrca }

func (b *AMMBackend) Quote(ctx context.Context, order Order) (*Quote, error) {
	if !b.network.IsTest() {
		return nil, ErrWrongNetwork
	}
	if order.AmountBase == 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}

	pool, err := b.quoter.FindPool(order.InputMint, order.OutputMint)
	if err != nil {
		return nil, err
	}

	sq, err := b.quoter.Quote(ctx, pool, order.InputMint, order.AmountBase, b.slippageBps)
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", pool.Name, err)
	}
	if sq.AmountOut == 0 {
		return nil, orca.ErrInsufficientLiquidity
	}

	return &Quote{
		Backend:      BackendOrca,
		InputMint:    sq.InputMint,
		OutputMint:   sq.OutputMint,
		InAmount:     sq.AmountIn,
		OutAmount:    sq.AmountOut,
		MinOutAmount: sq.MinAmountOut,
		InDecimals:   order.InDecimals,
		OutDecimals:  order.OutDecimals,
		SlippageBps:  sq.SlippageBps,
		// the pool quote does not expose price impact
		PriceImpactPct: 0,
		RouteSteps:     []RouteStep{},
		QuotedAt:       time.Now().UTC(),
		handle:         sq,
	}, nil
}

func (b *AMMBackend) Build(ctx context.Context, owner solana.PublicKey, q *Quote) (txsign.Envelope, error) {
	if !b.network.IsTest() {
		return txsign.Envelope{}, ErrWrongNetwork
	}
	sq, ok := q.handle.(*orca.SwapQuote)
	if q.Backend != BackendOrca || !ok || sq == nil {
		return txsign.Envelope{}, ErrBackendMismatch
	}

	res, err := b.quoter.BuildSwap(ctx, owner, sq)
	if err != nil {
		return txsign.Envelope{}, fmt.Errorf("build pool swap: %w", err)
	}
	return txsign.Normalize(res)
}

func (b *AMMBackend) SendOptions() rpc.SendOptions {
	return rpc.SendOptions{
		SkipPreflight: true,
		MaxRetries:    retries(constants.AMMSendMaxRetries),
	}
}

// poolName returns the pool behind an AMM quote.
func (q *Quote) poolName() (string, bool) {
	sq, ok := q.handle.(*orca.SwapQuote)
	if !ok || sq == nil || sq.Pool == nil {
		return "", false
	}
	return sq.Pool.Name, true
}
