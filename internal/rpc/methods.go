package rpc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// ErrConfirmTimeout is returned when a signature does not reach the
// requested commitment in time.
var ErrConfirmTimeout = errors.New("transaction confirmation timeout")

type valueResult[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

// GetBalance returns the lamport balance of account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := call[valueResult[uint64]](ctx, c, "getBalance", []any{
		account.String(),
		map[string]any{"commitment": c.commitment},
	})
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// GetAccountInfo returns nil, nil when the account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error) {
	res, err := call[valueResult[*AccountInfo]](ctx, c, "getAccountInfo", []any{
		account.String(),
		map[string]any{"encoding": "base64", "commitment": c.commitment},
	})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// GetMultipleAccounts returns one entry per requested key; missing accounts are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, accounts []solana.PublicKey) ([]*AccountInfo, error) {
	keys := make([]string, len(accounts))
	for i, a := range accounts {
		keys[i] = a.String()
	}
	res, err := call[valueResult[[]*AccountInfo]](ctx, c, "getMultipleAccounts", []any{
		keys,
		map[string]any{"encoding": "base64", "commitment": c.commitment},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Value) != len(accounts) {
		return nil, fmt.Errorf("getMultipleAccounts: expected %d accounts, got %d", len(accounts), len(res.Value))
	}
	return res.Value, nil
}

// AccountExists checks if an account exists on-chain.
func (c *Client) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := c.GetAccountInfo(ctx, account)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// GetTokenAccountsByOwner lists owner's SPL token accounts for mint.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]TokenAccount, error) {
	res, err := call[valueResult[[]TokenAccount]](ctx, c, "getTokenAccountsByOwner", []any{
		owner.String(),
		map[string]any{"mint": mint.String()},
		map[string]any{"encoding": "jsonParsed", "commitment": c.commitment},
	})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// GetTokenAccountBalance returns the raw balance of a token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := call[valueResult[TokenAmount]](ctx, c, "getTokenAccountBalance", []any{
		account.String(),
		map[string]any{"commitment": c.commitment},
	})
	if err != nil {
		return 0, err
	}
	return res.Value.Raw()
}

// GetTokenSupply is used to learn a mint's decimals.
func (c *Client) GetTokenSupply(ctx context.Context, mint solana.PublicKey) (*TokenAmount, error) {
	res, err := call[valueResult[TokenAmount]](ctx, c, "getTokenSupply", []any{
		mint.String(),
		map[string]any{"commitment": c.commitment},
	})
	if err != nil {
		return nil, err
	}
	return &res.Value, nil
}

// GetMintDecimals returns the decimals of mint.
func (c *Client) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	supply, err := c.GetTokenSupply(ctx, mint)
	if err != nil {
		return 0, err
	}
	return supply.Decimals, nil
}

// GetLatestBlockhash fetches the most recent blockhash.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := call[valueResult[Blockhash]](ctx, c, "getLatestBlockhash", []any{
		map[string]any{"commitment": c.commitment},
	})
	if err != nil {
		return solana.Hash{}, err
	}
	hash, err := solana.HashFromBase58(res.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts SendOptions) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	cfg := map[string]any{
		"encoding":      "base64",
		"skipPreflight": opts.SkipPreflight,
	}
	if opts.PreflightCommitment != "" {
		cfg["preflightCommitment"] = opts.PreflightCommitment
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}

	res, err := call[string](ctx, c, "sendTransaction", []any{
		base64.StdEncoding.EncodeToString(raw),
		cfg,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	sig, err := solana.SignatureFromBase58(res)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid signature %q: %w", res, err)
	}
	return sig, nil
}

// GetSignatureStatus returns nil when the cluster has not seen sig yet.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	res, err := call[valueResult[[]*SignatureStatus]](ctx, c, "getSignatureStatuses", []any{
		[]string{sig.String()},
		map[string]any{"searchTransactionHistory": true},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Value) == 0 {
		return nil, nil
	}
	return res.Value[0], nil
}

// ConfirmTransaction polls until sig reaches commitment or lands with an
// error. A landed-but-failed transaction is returned as a status with Err set,
// not as an error; callers decide how to report it.
func (c *Client) ConfirmTransaction(
	ctx context.Context,
	sig solana.Signature,
	commitment string,
	timeout time.Duration,
) (*SignatureStatus, error) {
	deadline := time.Now().Add(timeout)
	backoff := 500 * time.Millisecond
	maxBackoff := 4 * time.Second

	for time.Now().Before(deadline) {
		status, err := c.GetSignatureStatus(ctx, sig)
		if err != nil {
			return nil, fmt.Errorf("failed to check signature: %w", err)
		}

		if status != nil && status.ConfirmationStatus != "" {
			if status.Err != nil {
				return status, nil
			}
			if commitmentReached(status.ConfirmationStatus, commitment) {
				return status, nil
			}
		}

		c.logger.WithFields(logrus.Fields{
			"signature": sig.String(),
			"backoff":   backoff,
		}).Debug("waiting for confirmation")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	return nil, fmt.Errorf("%w after %v", ErrConfirmTimeout, timeout)
}

func commitmentReached(status, want string) bool {
	switch want {
	case "processed":
		return status != ""
	case "confirmed":
		return status == "confirmed" || status == "finalized"
	case "finalized":
		return status == "finalized"
	default:
		return status != ""
	}
}

// GetSignaturesForAddress returns the most recent signatures touching address.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error) {
	opts := map[string]any{"commitment": c.commitment}
	if limit > 0 {
		opts["limit"] = limit
	}
	return call[[]SignatureInfo](ctx, c, "getSignaturesForAddress", []any{address.String(), opts})
}

// GetTransaction fetches a transaction in "json" encoding. It returns nil, nil
// for unknown signatures.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TransactionResult, error) {
	return call[*TransactionResult](ctx, c, "getTransaction", []any{
		signature,
		map[string]any{
			"encoding":                       "json",
			"commitment":                     c.commitment,
			"maxSupportedTransactionVersion": 0,
		},
	})
}
