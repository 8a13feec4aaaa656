package orca

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
)

// Client reads pool state through the shared RPC client.
type Client struct {
	rpc    *rpc.Client
	logger *logrus.Logger
}

func NewClient(rpcClient *rpc.Client, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{rpc: rpcClient, logger: logger}
}

// FetchLegacyReserves returns a legacy pool's vault balances ordered as
// (input, output) for the given direction.
func (c *Client) FetchLegacyReserves(ctx context.Context, pool *LegacyPool, aToB bool) (reserveIn, reserveOut uint64, err error) {
	a, b, err := c.FetchVaultBalances(ctx, pool.VaultA, pool.VaultB)
	if err != nil {
		return 0, 0, err
	}
	if aToB {
		return a, b, nil
	}
	return b, a, nil
}

// FetchVaultBalances fetches token account balances for legacy pool vaults
func (c *Client) FetchVaultBalances(
	ctx context.Context,
	vaultA, vaultB solana.PublicKey,
) (balanceA, balanceB uint64, err error) {
	balA, err := c.rpc.GetTokenAccountBalance(ctx, vaultA)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch vault A balance: %w", err)
	}

	balB, err := c.rpc.GetTokenAccountBalance(ctx, vaultB)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch vault B balance: %w", err)
	}

	return balA, balB, nil
}

// FetchWhirlpool reads and decodes a whirlpool account.
func (c *Client) FetchWhirlpool(ctx context.Context, address solana.PublicKey) (*Whirlpool, error) {
	info, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch whirlpool %s: %w", address, err)
	}
	if info == nil {
		return nil, fmt.Errorf("whirlpool %s: %w", address, ErrPoolNotFound)
	}
	return DecodeWhirlpool(info.Data)
}

// FetchWhirlpoolState reads the pool and the three tick arrays a swap in the
// given direction can touch. Nothing is cached.
func (c *Client) FetchWhirlpoolState(
	ctx context.Context,
	programID, address solana.PublicKey,
	inputMint solana.PublicKey,
) (*WhirlpoolState, error) {
	w, err := c.FetchWhirlpool(ctx, address)
	if err != nil {
		return nil, err
	}

	var aToB bool
	switch {
	case w.TokenMintA.Equals(inputMint):
		aToB = true
	case w.TokenMintB.Equals(inputMint):
		aToB = false
	default:
		return nil, fmt.Errorf("%w: %s", ErrMintNotInPool, inputMint)
	}

	state := &WhirlpoolState{Address: address, Whirlpool: w, AToB: aToB}
	starts := TickArrayStartIndexes(w.TickCurrentIndex, w.TickSpacing, aToB)
	keys := make([]solana.PublicKey, len(starts))
	for i, start := range starts {
		key, err := TickArrayAddress(programID, address, start)
		if err != nil {
			return nil, err
		}
		keys[i] = key
		state.ArrayKeys[i] = key
	}

	infos, err := c.rpc.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tick arrays: %w", err)
	}
	for i, info := range infos {
		if info == nil {
			c.logger.WithFields(logrus.Fields{
				"pool":  address.String(),
				"start": starts[i],
			}).Debug("tick array not initialized")
			break
		}
		ta, err := DecodeTickArray(info.Data)
		if err != nil {
			return nil, fmt.Errorf("tick array %d: %w", starts[i], err)
		}
		state.TickArrays = append(state.TickArrays, ta)
	}

	// The instruction always takes three arrays. A missing tail reuses the
	// last fetched one.
	for i := len(state.TickArrays); i > 0 && i < len(state.ArrayKeys); i++ {
		state.ArrayKeys[i] = state.ArrayKeys[i-1]
	}

	return state, nil
}

// LatestBlockhash is used when assembling swap transactions.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return c.rpc.GetLatestBlockhash(ctx)
}
