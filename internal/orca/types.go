package orca

import (
	"errors"
	"math/big"

	"github.com/gagliardetto/solana-go"
)

// Program IDs
const (
	LegacyProgramID    = "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP"
	WhirlpoolProgramID = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
)

var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in fetched tick arrays")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrMintNotInPool         = errors.New("input mint does not match pool mints")
)

// PoolKind selects the quote math and instruction layout.
type PoolKind int

const (
	KindWhirlpool PoolKind = iota
	KindLegacy
)

func (k PoolKind) String() string {
	if k == KindLegacy {
		return "legacy"
	}
	return "whirlpool"
}

// Pool is a registry entry. Legacy is set only for KindLegacy.
type Pool struct {
	Name       string
	Kind       PoolKind
	ProgramID  solana.PublicKey
	Address    solana.PublicKey
	TokenMintA solana.PublicKey
	TokenMintB solana.PublicKey
	Legacy     *LegacyPool
}

// Direction reports whether inputMint is token A of the pool.
func (p *Pool) Direction(inputMint solana.PublicKey) (aToB bool, err error) {
	switch {
	case p.TokenMintA.Equals(inputMint):
		return true, nil
	case p.TokenMintB.Equals(inputMint):
		return false, nil
	}
	return false, ErrMintNotInPool
}

// OtherMint returns the pool mint opposite to mint.
func (p *Pool) OtherMint(mint solana.PublicKey) solana.PublicKey {
	if p.TokenMintA.Equals(mint) {
		return p.TokenMintB
	}
	return p.TokenMintA
}

// SwapQuote contains quote details for a swap
type SwapQuote struct {
	Pool         *Pool
	InputMint    solana.PublicKey
	OutputMint   solana.PublicKey
	AToB         bool
	AmountIn     uint64 // Raw input amount (with decimals)
	AmountOut    uint64 // Expected output (with decimals)
	MinAmountOut uint64 // Minimum output after slippage
	SlippageBps  uint16
	FeeBps       uint16
	PriceImpact  float64 // 0.01 = 1%

	// Whirlpool only
	TickArrays [3]solana.PublicKey
	VaultA     solana.PublicKey
	VaultB     solana.PublicKey

	// Legacy only
	ReserveIn  uint64
	ReserveOut uint64
}

// WhirlpoolState is a decoded pool plus the tick arrays fetched for one
// swap direction.
type WhirlpoolState struct {
	Address    solana.PublicKey
	Whirlpool  *Whirlpool
	AToB       bool
	TickArrays []*TickArray       // contiguous, in swap order; stops at the first missing array
	ArrayKeys  [3]solana.PublicKey // the PDAs passed to the swap instruction
}

func (s *WhirlpoolState) SqrtPrice() *big.Int { return s.Whirlpool.SqrtPrice.BigInt() }
func (s *WhirlpoolState) Liquidity() *big.Int { return s.Whirlpool.Liquidity.BigInt() }
