package orca

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// ResolvedTokenAccount is the owner's token account for one mint plus the
// instructions that make it usable before the swap and clean it up after.
type ResolvedTokenAccount struct {
	Account solana.PublicKey
	Created bool
	PreIxs  []solana.Instruction
	PostIxs []solana.Instruction
}

// ResolveTokenAccount returns owner's ATA for mint, creating it when missing.
// For the native mint, wrapLamports are moved in and synced, and the account
// is closed after the swap so the balance ends up as plain SOL again.
func (c *Client) ResolveTokenAccount(
	ctx context.Context,
	owner, mint solana.PublicKey,
	wrapLamports uint64,
) (*ResolvedTokenAccount, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive ata for %s: %w", mint, err)
	}

	exists, err := c.rpc.AccountExists(ctx, ata)
	if err != nil {
		return nil, fmt.Errorf("check ata %s: %w", ata, err)
	}

	res := &ResolvedTokenAccount{Account: ata}
	if !exists {
		res.Created = true
		res.PreIxs = append(res.PreIxs,
			associatedtokenaccount.NewCreateInstruction(owner, owner, mint).Build(),
		)
	}

	if mint.Equals(solana.SolMint) {
		if wrapLamports > 0 {
			res.PreIxs = append(res.PreIxs,
				system.NewTransferInstruction(wrapLamports, owner, ata).Build(),
				token.NewSyncNativeInstruction(ata).Build(),
			)
		}
		res.PostIxs = append(res.PostIxs,
			token.NewCloseAccountInstruction(ata, owner, owner, nil).Build(),
		)
	}

	return res, nil
}
