package orca

import (
	"errors"
	"math/big"
)

const bpsDenominator = 10_000

var errEmptyReserves = errors.New("amount and both reserves must be non-zero")

// LegacyFee is a constant-product pool's trade fee as a fraction of the input.
type LegacyFee struct {
	Numerator   uint64
	Denominator uint64
}

func (f LegacyFee) Bps() uint16 {
	if f.Denominator == 0 {
		return 0
	}
	return uint16(f.Numerator * bpsDenominator / f.Denominator)
}

// ConstantProductOut prices amountIn against x*y=k reserves after taking the
// fee from the input. The second result is the shortfall against the spot
// rate, in [0, 1].
func ConstantProductOut(amountIn, reserveIn, reserveOut uint64, fee LegacyFee) (uint64, float64, error) {
	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0, 0, errEmptyReserves
	}
	if fee.Denominator == 0 || fee.Numerator >= fee.Denominator {
		return 0, 0, errors.New("fee must be a fraction below 1")
	}

	in := mulDiv(amountIn, fee.Denominator-fee.Numerator, fee.Denominator)
	num := new(big.Int).Mul(in, new(big.Int).SetUint64(reserveOut))
	den := new(big.Int).Add(in, new(big.Int).SetUint64(reserveIn))
	out := num.Quo(num, den)
	if !out.IsUint64() {
		return 0, 0, errors.New("output amount overflows u64")
	}

	got := out.Uint64()
	spot := float64(reserveOut) / float64(reserveIn)
	impact := 1 - (float64(got)/float64(amountIn))/spot
	if impact < 0 {
		impact = 0
	}
	return got, impact, nil
}

// ApplySlippage floors amountOut by slippageBps.
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= bpsDenominator {
		return 0
	}
	return mulDiv(amountOut, bpsDenominator-uint64(slippageBps), bpsDenominator).Uint64()
}

// WhirlpoolFeeBps converts a whirlpool fee rate (parts per million) to basis
// points.
func WhirlpoolFeeBps(feeRate uint16) uint16 {
	return feeRate / (FeeRateDenominator / bpsDenominator)
}

func mulDiv(a, b, d uint64) *big.Int {
	x := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return x.Quo(x, new(big.Int).SetUint64(d))
}
