package orca

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhirlpoolSwapInstruction(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	p := WhirlpoolSwapParams{
		ProgramID:            solana.MustPublicKeyFromBase58(WhirlpoolProgramID),
		Whirlpool:            solana.NewWallet().PublicKey(),
		Authority:            owner,
		OwnerAccountA:        solana.NewWallet().PublicKey(),
		OwnerAccountB:        solana.NewWallet().PublicKey(),
		VaultA:               solana.NewWallet().PublicKey(),
		VaultB:               solana.NewWallet().PublicKey(),
		Oracle:               solana.NewWallet().PublicKey(),
		Amount:               100_000_000,
		OtherAmountThreshold: 47_520_000,
		AToB:                 true,
	}

	ix := BuildWhirlpoolSwapInstruction(p)
	data, err := ix.Data()
	require.NoError(t, err)

	require.Len(t, data, 42)
	assert.Equal(t, swapDiscriminator[:], data[:8])
	assert.Equal(t, uint64(100_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(47_520_000), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, MinSqrtPrice.Uint64(), binary.LittleEndian.Uint64(data[24:32]))
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(data[32:40]))
	assert.Equal(t, byte(1), data[40])
	assert.Equal(t, byte(1), data[41])

	accounts := ix.Accounts()
	require.Len(t, accounts, 11)
	assert.Equal(t, solana.TokenProgramID, accounts[0].PublicKey)
	assert.True(t, accounts[1].IsSigner)
	assert.Equal(t, owner, accounts[1].PublicKey)
	for _, i := range []int{2, 3, 4, 5, 6, 7, 8, 9, 10} {
		assert.True(t, accounts[i].IsWritable, "account %d", i)
	}

	p.AToB = false
	data, err = BuildWhirlpoolSwapInstruction(p).Data()
	require.NoError(t, err)
	assert.Equal(t, byte(0), data[41])
	assert.Equal(t, 0, MaxSqrtPrice.Cmp(new(big.Int).SetBytes(reverse(data[24:40]))))
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[len(b)-1-i]
	}
	return out
}

func TestBuildLegacySwapInstruction(t *testing.T) {
	pool := &LegacyPool{
		ProgramID:   solana.MustPublicKeyFromBase58(LegacyProgramID),
		SwapAccount: solana.NewWallet().PublicKey(),
		Authority:   solana.NewWallet().PublicKey(),
		VaultA:      solana.NewWallet().PublicKey(),
		VaultB:      solana.NewWallet().PublicKey(),
		PoolMint:    solana.NewWallet().PublicKey(),
		FeeAccount:  solana.NewWallet().PublicKey(),
	}

	ix, err := BuildLegacySwapInstruction(pool, 10, 9, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), false)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(1), data[0])
	assert.Equal(t, uint64(10), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(data[9:17]))

	accounts := ix.Accounts()
	require.Len(t, accounts, 10)
	assert.Equal(t, pool.VaultB, accounts[4].PublicKey, "b->a reads from vault B")
	assert.Equal(t, pool.VaultA, accounts[5].PublicKey)

	_, err = BuildLegacySwapInstruction(nil, 1, 1, solana.PublicKey{}, solana.PublicKey{}, solana.PublicKey{}, true)
	assert.Error(t, err)
}

func TestMath(t *testing.T) {
	fee := LegacyFee{Numerator: 25, Denominator: 10_000}
	out, impact, err := ConstantProductOut(1_000, 1_000_000, 2_000_000, fee)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_992), out)
	assert.Greater(t, impact, 0.0)

	_, _, err = ConstantProductOut(0, 1, 1, fee)
	assert.Error(t, err)
	_, _, err = ConstantProductOut(1, 1, 1, LegacyFee{Numerator: 1, Denominator: 1})
	assert.Error(t, err)

	assert.Equal(t, uint64(99), ApplySlippage(100, 100))
	assert.Equal(t, uint64(47_520_000), ApplySlippage(48_000_000, 100))
	assert.Equal(t, uint64(0), ApplySlippage(100, 10_000))

	assert.Equal(t, uint16(25), fee.Bps())
	assert.Equal(t, uint16(30), WhirlpoolFeeBps(3000))
}
