package orca

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// BuildLegacySwapInstruction constructs an SPL Token Swap style instruction
// for Orca legacy pools
func BuildLegacySwapInstruction(
	pool *LegacyPool,
	amountIn uint64,
	minAmountOut uint64,
	userAuthority solana.PublicKey,
	userTokenAccountIn solana.PublicKey,
	userTokenAccountOut solana.PublicKey,
	aToB bool,
) (solana.Instruction, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}

	poolSource := pool.VaultA
	poolDest := pool.VaultB
	if !aToB {
		poolSource = pool.VaultB
		poolDest = pool.VaultA
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(pool.SwapAccount).WRITE(),
		solana.Meta(pool.Authority),
		solana.Meta(userAuthority).SIGNER(),
		solana.Meta(userTokenAccountIn).WRITE(),
		solana.Meta(poolSource).WRITE(),
		solana.Meta(poolDest).WRITE(),
		solana.Meta(userTokenAccountOut).WRITE(),
		solana.Meta(pool.PoolMint).WRITE(),
		solana.Meta(pool.FeeAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}
	if pool.HostFeeAccount != nil {
		accounts = append(accounts, solana.Meta(*pool.HostFeeAccount).WRITE())
	}

	// [0] = 1 (Swap), [1:9] = amount_in, [9:17] = minimum_amount_out
	data := make([]byte, 17)
	data[0] = 1
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	return solana.NewInstruction(pool.ProgramID, accounts, data), nil
}

// WhirlpoolSwapParams are the inputs of the whirlpool swap instruction.
type WhirlpoolSwapParams struct {
	ProgramID            solana.PublicKey
	Whirlpool            solana.PublicKey
	Authority            solana.PublicKey
	OwnerAccountA        solana.PublicKey
	OwnerAccountB        solana.PublicKey
	VaultA               solana.PublicKey
	VaultB               solana.PublicKey
	TickArrays           [3]solana.PublicKey
	Oracle               solana.PublicKey
	Amount               uint64
	OtherAmountThreshold uint64
	AToB                 bool
}

// BuildWhirlpoolSwapInstruction builds an exact-input whirlpool swap with the
// price limit pinned to the end of the range in the swap direction.
func BuildWhirlpoolSwapInstruction(p WhirlpoolSwapParams) solana.Instruction {
	limit := MaxSqrtPrice
	if p.AToB {
		limit = MinSqrtPrice
	}

	data := make([]byte, 0, 42)
	data = append(data, swapDiscriminator[:]...)
	data = binary.LittleEndian.AppendUint64(data, p.Amount)
	data = binary.LittleEndian.AppendUint64(data, p.OtherAmountThreshold)
	data = append(data, u128LE(limit)...)
	data = append(data, 1) // amount_specified_is_input
	if p.AToB {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(solana.TokenProgramID),
		solana.Meta(p.Authority).SIGNER(),
		solana.Meta(p.Whirlpool).WRITE(),
		solana.Meta(p.OwnerAccountA).WRITE(),
		solana.Meta(p.VaultA).WRITE(),
		solana.Meta(p.OwnerAccountB).WRITE(),
		solana.Meta(p.VaultB).WRITE(),
		solana.Meta(p.TickArrays[0]).WRITE(),
		solana.Meta(p.TickArrays[1]).WRITE(),
		solana.Meta(p.TickArrays[2]).WRITE(),
		solana.Meta(p.Oracle).WRITE(),
	}

	return solana.NewInstruction(p.ProgramID, accounts, data)
}

func u128LE(v *big.Int) []byte {
	be := v.FillBytes(make([]byte, 16))
	le := make([]byte, 16)
	for i := range be {
		le[i] = be[15-i]
	}
	return le
}
