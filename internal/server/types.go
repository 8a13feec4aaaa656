package server

import "github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// NetworkResponse describes the RPC endpoint the engine is bound to
type NetworkResponse struct {
	Network  string `json:"network"`
	Endpoint string `json:"endpoint"`
	Backend  string `json:"backend"`
}

// QuoteResponse wraps an engine quote with its display estimate
type QuoteResponse struct {
	*swapengine.Quote
	EstimatedOut string `json:"estimatedOut"`
}

// SwapRequestBody is the POST /v1/swap payload. Mints accept SOL/USDC symbols.
type SwapRequestBody struct {
	Amount     float64 `json:"amount"`
	InputMint  string  `json:"inputMint"`
	OutputMint string  `json:"outputMint"`
}

// WalletResponse is the configured wallet's address and balances
type WalletResponse struct {
	Address string  `json:"address"`
	Network string  `json:"network"`
	SOL     float64 `json:"sol"`
	USDC    float64 `json:"usdc"`
}

// FlagUpsertRequest represents a request to create or update a feature flag
type FlagUpsertRequest struct {
	Key   string `json:"key"`   // Flag key (must match regex pattern)
	Value bool   `json:"value"` // Flag value (true/false)
}

// FlagUpdateRequest represents a request to update an existing feature flag
type FlagUpdateRequest struct {
	Value bool `json:"value"` // New flag value
}
