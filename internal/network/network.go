// Package network classifies the active RPC endpoint so callers can pick
// the swap backend that serves it.
package network

import (
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
)

type Network int

const (
	Production Network = iota
	Test
)

const testMarker = "devnet"

// Classify reports Test when endpoint mentions devnet (any case) and
// Production for everything else, including custom endpoints.
func Classify(endpoint string) Network {
	if strings.Contains(strings.ToLower(endpoint), testMarker) {
		return Test
	}
	return Production
}

func (n Network) String() string {
	if n == Test {
		return "devnet"
	}
	return "mainnet"
}

func (n Network) IsTest() bool { return n == Test }

// StableMint returns the USDC mint used on n.
func StableMint(n Network) solana.PublicKey {
	if n == Test {
		return solana.MustPublicKeyFromBase58(constants.USDCMintDevnet)
	}
	return solana.MustPublicKeyFromBase58(constants.USDCMintMain)
}

// NativeMint is the wrapped SOL mint, used as the native asset's identifier.
func NativeMint() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(constants.SOLMint)
}

// ResolveToken maps a symbol (SOL, USDC) or a base58 mint to a mint on n.
func ResolveToken(n Network, token string) (solana.PublicKey, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "SOL", "WSOL":
		return NativeMint(), nil
	case "USDC":
		return StableMint(n), nil
	}
	return solana.PublicKeyFromBase58(strings.TrimSpace(token))
}
