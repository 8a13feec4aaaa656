package swapengine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
	gocache "github.com/patrickmn/go-cache"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

// validateAmount runs before anything touches the network.
func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &ValidationError{Field: "amount", Reason: "must be a finite number"}
	}
	if amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be greater than 0"}
	}
	return nil
}

// resolveMints applies the SOL -> network USDC defaults.
func resolveMints(net network.Network, req QuoteRequest) (in, out solana.PublicKey, err error) {
	in, out = req.InputMint, req.OutputMint
	if in.IsZero() {
		in = network.NativeMint()
	}
	if out.IsZero() {
		out = network.StableMint(net)
	}
	if in.Equals(out) {
		return in, out, &ValidationError{Field: "outputMint", Reason: "input and output token must differ"}
	}
	return in, out, nil
}

// prepare turns a human request into an Order. Amount and mint checks
// happen first; decimals of unknown mints are then looked up on chain.
func (e *Engine) prepare(ctx context.Context, req QuoteRequest) (Order, error) {
	if err := validateAmount(req.AmountHuman); err != nil {
		return Order{}, err
	}
	in, out, err := resolveMints(e.network, req)
	if err != nil {
		return Order{}, err
	}

	inDec, err := e.decimals(ctx, in)
	if err != nil {
		return Order{}, err
	}
	outDec, err := e.decimals(ctx, out)
	if err != nil {
		return Order{}, err
	}

	base, err := units.ToBaseUnits(req.AmountHuman, inDec)
	if err != nil {
		if errors.Is(err, units.ErrInvalidAmount) {
			return Order{}, &ValidationError{Field: "amount", Reason: "rounds to zero base units"}
		}
		return Order{}, err
	}

	return Order{
		InputMint:   in,
		OutputMint:  out,
		AmountBase:  base,
		InDecimals:  inDec,
		OutDecimals: outDec,
	}, nil
}

func (e *Engine) decimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	key := mint.String()
	if d, ok := constants.TokenDecimals[key]; ok {
		return d, nil
	}
	if v, ok := e.decimalsCache.Get(key); ok {
		return v.(uint8), nil
	}

	d, err := e.chain.GetMintDecimals(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("mint decimals for %s: %w", key, err)
	}
	e.decimalsCache.Set(key, d, gocache.NoExpiration)
	return d, nil
}
