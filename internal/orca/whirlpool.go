package orca

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	TickArraySize  = 88
	WhirlpoolSize  = 653
	TickArrayBytes = 9988

	MinTickIndex = -443636
	MaxTickIndex = 443636
)

var (
	whirlpoolDiscriminator = anchorDiscriminator("account", "Whirlpool")
	tickArrayDiscriminator = anchorDiscriminator("account", "TickArray")
	swapDiscriminator      = anchorDiscriminator("global", "swap")
)

func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type WhirlpoolRewardInfo struct {
	Mint                  solana.PublicKey
	Vault                 solana.PublicKey
	Authority             solana.PublicKey
	EmissionsPerSecondX64 bin.Uint128
	GrowthGlobalX64       bin.Uint128
}

// Whirlpool is the on-chain pool account.
type Whirlpool struct {
	Discriminator              [8]byte
	WhirlpoolsConfig           solana.PublicKey
	WhirlpoolBump              [1]uint8
	TickSpacing                uint16
	TickSpacingSeed            [2]uint8
	FeeRate                    uint16 // hundredths of a bip, denominator 1e6
	ProtocolFeeRate            uint16
	Liquidity                  bin.Uint128
	SqrtPrice                  bin.Uint128 // Q64.64
	TickCurrentIndex           int32
	ProtocolFeeOwedA           uint64
	ProtocolFeeOwedB           uint64
	TokenMintA                 solana.PublicKey
	TokenVaultA                solana.PublicKey
	FeeGrowthGlobalA           bin.Uint128
	TokenMintB                 solana.PublicKey
	TokenVaultB                solana.PublicKey
	FeeGrowthGlobalB           bin.Uint128
	RewardLastUpdatedTimestamp uint64
	RewardInfos                [3]WhirlpoolRewardInfo
}

type Tick struct {
	Initialized          bool
	LiquidityNet         bin.Int128
	LiquidityGross       bin.Uint128
	FeeGrowthOutsideA    bin.Uint128
	FeeGrowthOutsideB    bin.Uint128
	RewardGrowthsOutside [3]bin.Uint128
}

type TickArray struct {
	Discriminator  [8]byte
	StartTickIndex int32
	Ticks          [TickArraySize]Tick
	Whirlpool      solana.PublicKey
}

// DecodeWhirlpool parses raw Whirlpool account data.
func DecodeWhirlpool(data []byte) (*Whirlpool, error) {
	if len(data) < WhirlpoolSize {
		return nil, fmt.Errorf("whirlpool account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], whirlpoolDiscriminator[:]) {
		return nil, fmt.Errorf("not a whirlpool account")
	}
	var w Whirlpool
	if err := bin.NewBorshDecoder(data).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode whirlpool: %w", err)
	}
	return &w, nil
}

// DecodeTickArray parses raw TickArray account data.
func DecodeTickArray(data []byte) (*TickArray, error) {
	if len(data) < TickArrayBytes {
		return nil, fmt.Errorf("tick array account too short: %d bytes", len(data))
	}
	if !bytes.Equal(data[:8], tickArrayDiscriminator[:]) {
		return nil, fmt.Errorf("not a tick array account")
	}
	var ta TickArray
	if err := bin.NewBorshDecoder(data).Decode(&ta); err != nil {
		return nil, fmt.Errorf("decode tick array: %w", err)
	}
	return &ta, nil
}

// TickArrayStartIndex returns the start index of the array containing tick.
func TickArrayStartIndex(tick int32, tickSpacing uint16) int32 {
	span := int32(tickSpacing) * TickArraySize
	start := tick / span
	if tick < 0 && tick%span != 0 {
		start--
	}
	return start * span
}

// TickArrayStartIndexes returns the three start indexes a swap in the given
// direction walks through.
func TickArrayStartIndexes(tickCurrent int32, tickSpacing uint16, aToB bool) [3]int32 {
	span := int32(tickSpacing) * TickArraySize
	var out [3]int32
	if aToB {
		start := TickArrayStartIndex(tickCurrent, tickSpacing)
		for i := range out {
			out[i] = start - int32(i)*span
		}
		return out
	}
	// b->a starts searching at tickCurrent+spacing, so the first array may be
	// the next one when the price sits on the last tick of the current array.
	start := TickArrayStartIndex(tickCurrent+int32(tickSpacing), tickSpacing)
	for i := range out {
		out[i] = start + int32(i)*span
	}
	return out
}

// TickArrayAddress derives the tick array PDA.
func TickArrayAddress(programID, whirlpool solana.PublicKey, startIndex int32) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte("tick_array"),
		whirlpool.Bytes(),
		[]byte(strconv.Itoa(int(startIndex))),
	}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("tick array pda %d: %w", startIndex, err)
	}
	return addr, nil
}

// OracleAddress derives the oracle PDA.
func OracleAddress(programID, whirlpool solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte("oracle"),
		whirlpool.Bytes(),
	}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("oracle pda: %w", err)
	}
	return addr, nil
}
