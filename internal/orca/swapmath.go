package orca

import (
	"fmt"
	"math/big"
	"sort"
)

const FeeRateDenominator = 1_000_000

var (
	q64 = new(big.Int).Lsh(big.NewInt(1), 64)

	MinSqrtPrice = big.NewInt(4295048016)
	MaxSqrtPrice = mustInt("79226673515401279992447579055")

	tickBase = mustFloat("1.0001")
)

const floatPrec = 256

func mustInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid integer " + s)
	}
	return v
}

func mustFloat(s string) *big.Float {
	f, _, err := big.ParseFloat(s, 10, floatPrec, big.ToNearestEven)
	if err != nil {
		panic(err)
	}
	return f
}

// SqrtPriceFromTick returns sqrt(1.0001^tick) as Q64.64.
func SqrtPriceFromTick(tick int32) *big.Int {
	exp := int64(tick)
	neg := exp < 0
	if neg {
		exp = -exp
	}

	result := new(big.Float).SetPrec(floatPrec).SetInt64(1)
	base := new(big.Float).SetPrec(floatPrec).Set(tickBase)
	for exp > 0 {
		if exp&1 == 1 {
			result.Mul(result, base)
		}
		base.Mul(base, base)
		exp >>= 1
	}
	if neg {
		result.Quo(new(big.Float).SetPrec(floatPrec).SetInt64(1), result)
	}

	result.Sqrt(result)
	result.Mul(result, new(big.Float).SetPrec(floatPrec).SetInt(q64))
	out, _ := result.Int(nil)
	return out
}

func divRound(num, den *big.Int, roundUp bool) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	if roundUp && r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func ordered(a, b *big.Int) (lo, hi *big.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// amountADelta is L * (hi - lo) * 2^64 / (hi * lo).
func amountADelta(p0, p1, liquidity *big.Int, roundUp bool) *big.Int {
	lo, hi := ordered(p0, p1)
	if lo.Sign() == 0 {
		return new(big.Int)
	}
	num := new(big.Int).Lsh(liquidity, 64)
	num.Mul(num, new(big.Int).Sub(hi, lo))
	den := new(big.Int).Mul(hi, lo)
	return divRound(num, den, roundUp)
}

// amountBDelta is L * (hi - lo) / 2^64.
func amountBDelta(p0, p1, liquidity *big.Int, roundUp bool) *big.Int {
	lo, hi := ordered(p0, p1)
	num := new(big.Int).Mul(liquidity, new(big.Int).Sub(hi, lo))
	return divRound(num, q64, roundUp)
}

// nextSqrtPriceFromInput moves the price by an input amount that is fully
// consumed inside the current liquidity range.
func nextSqrtPriceFromInput(sqrtPrice, liquidity, amount *big.Int, aToB bool) *big.Int {
	if amount.Sign() == 0 {
		return new(big.Int).Set(sqrtPrice)
	}
	if aToB {
		// L*2^64*P / (L*2^64 + amount*P), rounded up
		l64 := new(big.Int).Lsh(liquidity, 64)
		num := new(big.Int).Mul(l64, sqrtPrice)
		den := new(big.Int).Add(l64, new(big.Int).Mul(amount, sqrtPrice))
		return divRound(num, den, true)
	}
	delta := new(big.Int).Lsh(amount, 64)
	delta.Quo(delta, liquidity)
	return delta.Add(delta, sqrtPrice)
}

// SwapStepResult is one concentrated-liquidity step.
type SwapStepResult struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	Fee       *big.Int
	NextPrice *big.Int
}

// ComputeSwapStep consumes up to remaining input between the current price
// and target, charging feeRate (parts per million).
func ComputeSwapStep(remaining, feeRate, liquidity, sqrtPrice, target *big.Int, aToB bool) SwapStepResult {
	feeDen := big.NewInt(FeeRateDenominator)
	lessFee := new(big.Int).Sub(feeDen, feeRate)
	remainingLessFee := new(big.Int).Mul(remaining, lessFee)
	remainingLessFee.Quo(remainingLessFee, feeDen)

	var toTarget *big.Int
	if aToB {
		toTarget = amountADelta(target, sqrtPrice, liquidity, true)
	} else {
		toTarget = amountBDelta(sqrtPrice, target, liquidity, true)
	}

	var res SwapStepResult
	if remainingLessFee.Cmp(toTarget) >= 0 {
		res.AmountIn = toTarget
		res.NextPrice = new(big.Int).Set(target)
		res.Fee = divRound(new(big.Int).Mul(toTarget, feeRate), lessFee, true)
	} else {
		res.AmountIn = remainingLessFee
		res.NextPrice = nextSqrtPriceFromInput(sqrtPrice, liquidity, remainingLessFee, aToB)
		res.Fee = new(big.Int).Sub(remaining, remainingLessFee)
	}

	if aToB {
		res.AmountOut = amountBDelta(res.NextPrice, sqrtPrice, liquidity, false)
	} else {
		res.AmountOut = amountADelta(sqrtPrice, res.NextPrice, liquidity, false)
	}
	return res
}

type initializedTick struct {
	index int32
	net   *big.Int
}

// SimulateSwap runs an exact-input swap across the fetched tick arrays and
// returns the output amount.
func SimulateSwap(state *WhirlpoolState, amountIn uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}
	if len(state.TickArrays) == 0 {
		return 0, ErrInsufficientLiquidity
	}
	w := state.Whirlpool
	spacing := int32(w.TickSpacing)
	span := spacing * TickArraySize
	aToB := state.AToB

	var ticks []initializedTick
	boundLo, boundHi := int32(MaxTickIndex), int32(MinTickIndex)
	for _, ta := range state.TickArrays {
		if ta.StartTickIndex < boundLo {
			boundLo = ta.StartTickIndex
		}
		if end := ta.StartTickIndex + span - spacing; end > boundHi {
			boundHi = end
		}
		for i, t := range ta.Ticks {
			if !t.Initialized {
				continue
			}
			ticks = append(ticks, initializedTick{
				index: ta.StartTickIndex + int32(i)*spacing,
				net:   t.LiquidityNet.BigInt(),
			})
		}
	}
	if boundLo < MinTickIndex {
		boundLo = MinTickIndex
	}
	if boundHi > MaxTickIndex {
		boundHi = MaxTickIndex
	}

	tickCurrent := w.TickCurrentIndex
	var path []initializedTick
	if aToB {
		sort.Slice(ticks, func(i, j int) bool { return ticks[i].index > ticks[j].index })
		for _, t := range ticks {
			if t.index <= tickCurrent {
				path = append(path, t)
			}
		}
		path = append(path, initializedTick{index: boundLo})
	} else {
		sort.Slice(ticks, func(i, j int) bool { return ticks[i].index < ticks[j].index })
		for _, t := range ticks {
			if t.index > tickCurrent {
				path = append(path, t)
			}
		}
		path = append(path, initializedTick{index: boundHi})
	}

	remaining := new(big.Int).SetUint64(amountIn)
	out := new(big.Int)
	feeRate := big.NewInt(int64(w.FeeRate))
	liquidity := w.Liquidity.BigInt()
	sqrtPrice := w.SqrtPrice.BigInt()

	for _, next := range path {
		if remaining.Sign() == 0 {
			break
		}
		target := SqrtPriceFromTick(next.index)
		if aToB && target.Cmp(MinSqrtPrice) < 0 {
			target = MinSqrtPrice
		}
		if !aToB && target.Cmp(MaxSqrtPrice) > 0 {
			target = MaxSqrtPrice
		}
		if (aToB && target.Cmp(sqrtPrice) > 0) || (!aToB && target.Cmp(sqrtPrice) < 0) {
			continue
		}

		step := ComputeSwapStep(remaining, feeRate, liquidity, sqrtPrice, target, aToB)
		remaining.Sub(remaining, step.AmountIn)
		remaining.Sub(remaining, step.Fee)
		out.Add(out, step.AmountOut)

		if step.NextPrice.Cmp(target) == 0 && next.net != nil {
			if aToB {
				liquidity = new(big.Int).Sub(liquidity, next.net)
			} else {
				liquidity = new(big.Int).Add(liquidity, next.net)
			}
			if liquidity.Sign() < 0 {
				return 0, fmt.Errorf("negative liquidity after crossing tick %d", next.index)
			}
		}
		sqrtPrice = step.NextPrice
	}

	if remaining.Sign() > 0 {
		return 0, ErrInsufficientLiquidity
	}
	if !out.IsUint64() {
		return 0, fmt.Errorf("output amount overflow")
	}
	return out.Uint64(), nil
}

// PriceFromSqrtPrice converts a Q64.64 sqrt price to a token-B-per-token-A
// price adjusted for decimals.
func PriceFromSqrtPrice(sqrtPrice *big.Int, decimalsA, decimalsB uint8) float64 {
	p := new(big.Float).SetPrec(floatPrec).SetInt(sqrtPrice)
	p.Quo(p, new(big.Float).SetInt(q64))
	p.Mul(p, p)
	shift := int(decimalsA) - int(decimalsB)
	scale := new(big.Float).SetPrec(floatPrec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs(shift))), nil))
	if shift >= 0 {
		p.Mul(p, scale)
	} else {
		p.Quo(p, scale)
	}
	f, _ := p.Float64()
	return f
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
