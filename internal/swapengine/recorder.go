package swapengine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

// SwapCache is the Redis side of the recorder.
type SwapCache interface {
	AddRecentSwap(ctx context.Context, swap *models.SwapEvent) error
	PublishSwap(ctx context.Context, swap *models.SwapEvent) error
}

// SwapStore is the ClickHouse side of the recorder.
type SwapStore interface {
	InsertSwap(ctx context.Context, swap *models.SwapEvent) error
}

// StoreRecorder writes confirmed swaps to the cache and the store. Both
// are optional and every error is only logged.
type StoreRecorder struct {
	cache   SwapCache
	store   SwapStore
	network network.Network
	logger  *logrus.Logger
	timeout time.Duration
}

func NewStoreRecorder(cache SwapCache, store SwapStore, net network.Network, logger *logrus.Logger) *StoreRecorder {
	if logger == nil {
		logger = logrus.New()
	}
	return &StoreRecorder{cache: cache, store: store, network: net, logger: logger, timeout: 5 * time.Second}
}

// Record publishes successful results; failures are ignored.
func (r *StoreRecorder) Record(ctx context.Context, req SwapRequest, res *SwapResult) {
	if res == nil || !res.Succeeded() || res.Quote == nil {
		return
	}
	ev := NewSwapEvent(req, res, r.network)

	// the caller's ctx may already be near its deadline after confirmation
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	log := r.logger.WithFields(logrus.Fields{
		"signature": ev.Signature,
		"backend":   ev.Backend,
	})
	if r.cache != nil {
		if err := r.cache.AddRecentSwap(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to cache swap")
		}
		if err := r.cache.PublishSwap(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to publish swap")
		}
	}
	if r.store != nil {
		if err := r.store.InsertSwap(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to store swap")
		}
	}
}

// NewSwapEvent builds the persisted record of a successful execute.
func NewSwapEvent(req SwapRequest, res *SwapResult, net network.Network) *models.SwapEvent {
	q := res.Quote
	tokenIn := constants.Symbol(q.InputMint.String())
	tokenOut := constants.Symbol(q.OutputMint.String())
	amountIn := units.FromBaseUnitsFloat(q.InAmount, q.InDecimals)
	amountOut := units.FromBaseUnitsFloat(q.OutAmount, q.OutDecimals)

	var price float64
	if amountIn > 0 {
		price = amountOut / amountIn
	}

	pool := ""
	if len(q.RouteSteps) > 0 {
		pool = q.RouteSteps[0].Label
	}
	if h, ok := q.poolName(); ok {
		pool = h
	}

	ev := &models.SwapEvent{
		Signature:   res.Signature,
		ExecutionID: res.ExecutionID,
		Timestamp:   time.Now().UTC(),
		Network:     net.String(),
		Backend:     res.Backend,
		Pair:        fmt.Sprintf("%s-%s", tokenIn, tokenOut),
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		Price:       price,
		Pool:        pool,
	}
	if req.Signer != nil {
		ev.Wallet = req.Signer.PublicKey.String()
	}
	return ev
}
