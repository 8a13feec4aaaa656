package constants

import "time"

// Redis keys
const (
	RedisKeyRecentSwaps = "swaps:recent"
)

// Redis Pub/Sub channels
const (
	PubSubChannelSwaps   = "swaps:all"
	PubSubWalletPrefix   = "swaps:wallet:"
	PubSubBackendPrefix  = "swaps:backend:"
	FlagSwapExecutePause = "swap.execute.paused"
)

// Limits
const (
	MaxRecentSwaps      = 500
	DefaultHistoryLimit = 10
)

// Swap policy
const (
	// FeeBufferLamports is held back from every trade so the wallet can still pay fees.
	FeeBufferLamports uint64 = 50_000

	AMMSlippageBps        uint16 = 100 // 1%
	AggregatorSlippageBps uint16 = 50

	AMMSendMaxRetries        = 3
	AggregatorSendMaxRetries = 2

	ConfirmCommitment = "confirmed"
)

// Timers
const (
	BalancePollInterval  = 15 * time.Second
	QuotePreviewDebounce = 500 * time.Millisecond
	ConfirmTimeout       = 60 * time.Second
)

// Endpoints
const (
	DefaultRPCURL         = "https://api.devnet.solana.com"
	DefaultJupiterBaseURL = "https://lite-api.jup.ag/swap/v1"
)

// Mints
const (
	SOLMint        = "So11111111111111111111111111111111111111112"
	USDCMintMain   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCMintDevnet = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
)

// DEX program addresses
var ProgramAddresses = map[string]string{
	"Jupiter": "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",
	// Orca legacy constant-product swap program
	"Orca": "9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP",
	// Orca Whirlpool program (same id on devnet and mainnet)
	"OrcaWhirlpool": "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",
}

// DevnetSOLUSDCWhirlpool is the devnet SOL/USDC pool used by the AMM backend.
const DevnetSOLUSDCWhirlpool = "3KBZiL2g8C7tiJ32hTv5v3KM7aK9htpqTw4cTXz1HvPt"

// Token mint addresses to symbols
var TokenSymbols = map[string]string{
	SOLMint:        "SOL",
	USDCMintMain:   "USDC",
	USDCMintDevnet: "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
}

// TokenDecimals maps known mints to their decimal places. Unknown mints are
// resolved on chain.
var TokenDecimals = map[string]uint8{
	SOLMint:        9,
	USDCMintMain:   6,
	USDCMintDevnet: 6,
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": 6,
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  9,
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": 5,
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  6,
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": 6,
}

// Symbol returns the ticker for mint, or a shortened address when unknown.
func Symbol(mint string) string {
	if s, ok := TokenSymbols[mint]; ok {
		return s
	}
	if len(mint) > 8 {
		return mint[:4] + ".." + mint[len(mint)-4:]
	}
	return mint
}
