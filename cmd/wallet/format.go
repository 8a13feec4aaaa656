package main

import (
	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

func symbol(mint solana.PublicKey) string {
	return constants.Symbol(mint.String())
}

func formatAmount(amount uint64, decimals uint8, mint solana.PublicKey) string {
	places := int32(decimals)
	if places > 6 {
		places = 6
	}
	return units.Format(amount, decimals, places) + " " + symbol(mint)
}
