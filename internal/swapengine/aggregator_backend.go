package swapengine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/jupiter"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/txsign"
)

const BackendJupiter = "jupiter"

// Aggregator is implemented by *jupiter.Client.
type Aggregator interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	Swap(ctx context.Context, req jupiter.SwapRequest) (*jupiter.SwapResponse, error)
}

// AggregatorBackend routes through Jupiter. It is used on production.
type AggregatorBackend struct {
	client      Aggregator
	slippageBps uint16
}

func NewAggregatorBackend(client Aggregator) *AggregatorBackend {
	return &AggregatorBackend{client: client, slippageBps: constants.AggregatorSlippageBps}
}

func (b *AggregatorBackend) Name() string { return BackendJupiter }

func (b *AggregatorBackend) Quote(ctx context.Context, order Order) (*Quote, error) {
	if order.AmountBase == 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}

	slippage := b.slippageBps
	resp, err := b.client.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   order.InputMint.String(),
		OutputMint:  order.OutputMint.String(),
		Amount:      strconv.FormatUint(order.AmountBase, 10),
		SlippageBps: &slippage,
		SwapMode:    "ExactIn",
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("jupiter returned no quote")
	}

	outAmount, err := strconv.ParseUint(resp.OutAmount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse outAmount %q: %w", resp.OutAmount, err)
	}
	if outAmount == 0 {
		return nil, fmt.Errorf("jupiter quote has zero output")
	}
	minOut, err := strconv.ParseUint(resp.OtherAmountThreshold, 10, 64)
	if err != nil {
		minOut = outAmount
	}
	inAmount := order.AmountBase
	if v, err := strconv.ParseUint(resp.InAmount, 10, 64); err == nil {
		inAmount = v
	}
	impact, _ := strconv.ParseFloat(resp.PriceImpactPct, 64)

	return &Quote{
		Backend:        BackendJupiter,
		InputMint:      order.InputMint,
		OutputMint:     order.OutputMint,
		InAmount:       inAmount,
		OutAmount:      outAmount,
		MinOutAmount:   minOut,
		InDecimals:     order.InDecimals,
		OutDecimals:    order.OutDecimals,
		SlippageBps:    resp.SlippageBps,
		PriceImpactPct: impact,
		RouteSteps: lo.Map(resp.RoutePlan, func(s jupiter.RoutePlanStep, _ int) RouteStep {
			return RouteStep{
				PoolID:     s.SwapInfo.AmmKey,
				Label:      s.SwapInfo.Label,
				InputMint:  s.SwapInfo.InputMint,
				OutputMint: s.SwapInfo.OutputMint,
			}
		}),
		QuotedAt: time.Now().UTC(),
		handle:   resp,
	}, nil
}

func (b *AggregatorBackend) Build(ctx context.Context, owner solana.PublicKey, q *Quote) (txsign.Envelope, error) {
	resp, ok := q.handle.(*jupiter.QuoteResponse)
	if q.Backend != BackendJupiter || !ok || resp == nil {
		return txsign.Envelope{}, ErrBackendMismatch
	}

	swap, err := b.client.Swap(ctx, jupiter.NewSwapRequest(resp, owner.String()))
	if err != nil {
		return txsign.Envelope{}, err
	}
	tx, err := jupiter.DecodeTransaction(swap.SwapTransaction)
	if err != nil {
		return txsign.Envelope{}, err
	}
	return txsign.Normalize(tx)
}

func (b *AggregatorBackend) SendOptions() rpc.SendOptions {
	return rpc.SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: constants.ConfirmCommitment,
		MaxRetries:          retries(constants.AggregatorSendMaxRetries),
	}
}
