package orca

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Quoter quotes and builds swaps against registered pools.
type Quoter struct {
	client   *Client
	registry *Registry
	logger   *logrus.Logger
}

func NewQuoter(client *Client, registry *Registry, logger *logrus.Logger) *Quoter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Quoter{client: client, registry: registry, logger: logger}
}

// FindPool looks up the pool for a pair.
func (q *Quoter) FindPool(inputMint, outputMint solana.PublicKey) (*Pool, error) {
	return q.registry.FindPoolByMints(inputMint, outputMint)
}

// Quote prices an exact-input swap against fresh on-chain state.
func (q *Quoter) Quote(
	ctx context.Context,
	pool *Pool,
	inputMint solana.PublicKey,
	amountIn uint64,
	slippageBps uint16,
) (*SwapQuote, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if amountIn == 0 {
		return nil, fmt.Errorf("amount must be > 0")
	}

	start := time.Now()
	var (
		quote *SwapQuote
		err   error
	)
	switch pool.Kind {
	case KindWhirlpool:
		quote, err = q.quoteWhirlpool(ctx, pool, inputMint, amountIn)
	case KindLegacy:
		quote, err = q.quoteLegacy(ctx, pool, inputMint, amountIn)
	default:
		err = fmt.Errorf("unsupported pool kind %d", pool.Kind)
	}
	if err != nil {
		return nil, err
	}

	quote.SlippageBps = slippageBps
	quote.MinAmountOut = ApplySlippage(quote.AmountOut, slippageBps)

	q.logger.WithFields(logrus.Fields{
		"pool":       pool.Name,
		"kind":       pool.Kind.String(),
		"amount_in":  quote.AmountIn,
		"amount_out": quote.AmountOut,
		"min_out":    quote.MinAmountOut,
		"took":       time.Since(start),
	}).Debug("pool quote")

	return quote, nil
}

func (q *Quoter) quoteWhirlpool(ctx context.Context, pool *Pool, inputMint solana.PublicKey, amountIn uint64) (*SwapQuote, error) {
	state, err := q.client.FetchWhirlpoolState(ctx, pool.ProgramID, pool.Address, inputMint)
	if err != nil {
		return nil, err
	}

	out, err := SimulateSwap(state, amountIn)
	if err != nil {
		return nil, err
	}

	w := state.Whirlpool
	outputMint := w.TokenMintB
	if !state.AToB {
		outputMint = w.TokenMintA
	}

	return &SwapQuote{
		Pool:       pool,
		InputMint:  inputMint,
		OutputMint: outputMint,
		AToB:       state.AToB,
		AmountIn:   amountIn,
		AmountOut:  out,
		FeeBps:     WhirlpoolFeeBps(w.FeeRate),
		TickArrays: state.ArrayKeys,
		VaultA:     w.TokenVaultA,
		VaultB:     w.TokenVaultB,
	}, nil
}

func (q *Quoter) quoteLegacy(ctx context.Context, pool *Pool, inputMint solana.PublicKey, amountIn uint64) (*SwapQuote, error) {
	if pool.Legacy == nil {
		return nil, fmt.Errorf("legacy pool %s has no config", pool.Name)
	}
	aToB, err := pool.Direction(inputMint)
	if err != nil {
		return nil, err
	}

	reserveIn, reserveOut, err := q.client.FetchLegacyReserves(ctx, pool.Legacy, aToB)
	if err != nil {
		return nil, err
	}
	fee := pool.Legacy.Fee()
	out, impact, err := ConstantProductOut(amountIn, reserveIn, reserveOut, fee)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pool.Name, err)
	}

	return &SwapQuote{
		Pool:        pool,
		InputMint:   inputMint,
		OutputMint:  pool.OtherMint(inputMint),
		AToB:        aToB,
		AmountIn:    amountIn,
		AmountOut:   out,
		FeeBps:      fee.Bps(),
		PriceImpact: impact,
		ReserveIn:   reserveIn,
		ReserveOut:  reserveOut,
	}, nil
}

// BuildResult wraps the unsigned swap transaction.
type BuildResult struct {
	Tx        *solana.Transaction
	Blockhash solana.Hash
}

func (b *BuildResult) WrappedTx() *solana.Transaction { return b.Tx }

// BuildSwap assembles the unsigned transaction for quote, paid by owner.
// Whirlpool swaps use a v0 message, legacy pools a legacy one.
func (q *Quoter) BuildSwap(ctx context.Context, owner solana.PublicKey, quote *SwapQuote) (*BuildResult, error) {
	if quote == nil || quote.Pool == nil {
		return nil, fmt.Errorf("quote cannot be nil")
	}

	var wrap uint64
	if quote.InputMint.Equals(solana.SolMint) {
		wrap = quote.AmountIn
	}

	in, err := q.client.ResolveTokenAccount(ctx, owner, quote.InputMint, wrap)
	if err != nil {
		return nil, err
	}
	out, err := q.client.ResolveTokenAccount(ctx, owner, quote.OutputMint, 0)
	if err != nil {
		return nil, err
	}

	var swapIx solana.Instruction
	switch quote.Pool.Kind {
	case KindWhirlpool:
		oracle, err := OracleAddress(quote.Pool.ProgramID, quote.Pool.Address)
		if err != nil {
			return nil, err
		}
		ownerA, ownerB := in.Account, out.Account
		if !quote.AToB {
			ownerA, ownerB = out.Account, in.Account
		}
		swapIx = BuildWhirlpoolSwapInstruction(WhirlpoolSwapParams{
			ProgramID:            quote.Pool.ProgramID,
			Whirlpool:            quote.Pool.Address,
			Authority:            owner,
			OwnerAccountA:        ownerA,
			OwnerAccountB:        ownerB,
			VaultA:               quote.VaultA,
			VaultB:               quote.VaultB,
			TickArrays:           quote.TickArrays,
			Oracle:               oracle,
			Amount:               quote.AmountIn,
			OtherAmountThreshold: quote.MinAmountOut,
			AToB:                 quote.AToB,
		})
	case KindLegacy:
		swapIx, err = BuildLegacySwapInstruction(
			quote.Pool.Legacy,
			quote.AmountIn,
			quote.MinAmountOut,
			owner,
			in.Account,
			out.Account,
			quote.AToB,
		)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported pool kind %d", quote.Pool.Kind)
	}

	ixs := make([]solana.Instruction, 0, len(in.PreIxs)+len(out.PreIxs)+1+len(in.PostIxs)+len(out.PostIxs))
	ixs = append(ixs, in.PreIxs...)
	ixs = append(ixs, out.PreIxs...)
	ixs = append(ixs, swapIx)
	ixs = append(ixs, in.PostIxs...)
	ixs = append(ixs, out.PostIxs...)

	blockhash, err := q.client.LatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(owner))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	if quote.Pool.Kind == KindWhirlpool {
		tx.Message.SetVersion(solana.MessageVersionV0)
	}

	return &BuildResult{Tx: tx, Blockhash: blockhash}, nil
}
