package models

import "time"

// SwapEvent is the record written after a swap confirms.
type SwapEvent struct {
	Signature   string    `json:"signature"`
	ExecutionID string    `json:"execution_id"`
	Timestamp   time.Time `json:"timestamp"`
	Wallet      string    `json:"wallet"`
	Network     string    `json:"network"`
	Backend     string    `json:"backend"` // "orca" or "jupiter"
	Pair        string    `json:"pair"`
	TokenIn     string    `json:"token_in"`
	TokenOut    string    `json:"token_out"`
	AmountIn    float64   `json:"amount_in"`
	AmountOut   float64   `json:"amount_out"` // quoted, not read back from the chain
	Price       float64   `json:"price"`
	Pool        string    `json:"pool"`
}
