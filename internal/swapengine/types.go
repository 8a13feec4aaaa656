package swapengine

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

// RouteStep is one hop of an aggregator route.
type RouteStep struct {
	PoolID     string `json:"poolId"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
}

// Quote is a priced estimate produced by one backend. It is only valid for
// that backend's Build.
type Quote struct {
	Backend        string           `json:"backend"`
	InputMint      solana.PublicKey `json:"inputMint"`
	OutputMint     solana.PublicKey `json:"outputMint"`
	InAmount       uint64           `json:"inAmount"`
	OutAmount      uint64           `json:"outAmount"`
	MinOutAmount   uint64           `json:"minOutAmount"`
	InDecimals     uint8            `json:"inDecimals"`
	OutDecimals    uint8            `json:"outDecimals"`
	SlippageBps    uint16           `json:"slippageBps"`
	PriceImpactPct float64          `json:"priceImpactPct"`
	RouteSteps     []RouteStep      `json:"routeSteps"`
	QuotedAt       time.Time        `json:"quotedAt"`

	handle any
}

// EstimatedOut renders OutAmount with two decimal places.
func (q *Quote) EstimatedOut() string {
	return units.Format(q.OutAmount, q.OutDecimals, 2)
}

// Order is a validated request in base units, handed to a backend.
type Order struct {
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
	AmountBase  uint64
	InDecimals  uint8
	OutDecimals uint8
}

// QuoteRequest asks for a price without executing.
type QuoteRequest struct {
	AmountHuman float64
	InputMint   solana.PublicKey // zero value means SOL
	OutputMint  solana.PublicKey // zero value means the network's USDC
}

// SwapRequest executes a swap signed by Signer.
type SwapRequest struct {
	Signer      *wallet.Keys
	AmountHuman float64
	InputMint   solana.PublicKey
	OutputMint  solana.PublicKey
}

func (r SwapRequest) quoteRequest() QuoteRequest {
	return QuoteRequest{AmountHuman: r.AmountHuman, InputMint: r.InputMint, OutputMint: r.OutputMint}
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// State is a step of a single execute attempt.
type State string

const (
	StateIdle        State = "idle"
	StateQuoting     State = "quoting"
	StateQuoteFailed State = "quote_failed"
	StateQuoted      State = "quoted"
	StateBuilding    State = "building"
	StateSigning     State = "signing"
	StateSubmitting  State = "submitting"
	StateConfirming  State = "confirming"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Transition is passed to Config.OnTransition.
type Transition struct {
	ExecutionID string
	From        State
	To          State
	At          time.Time
}

// SwapResult is the uniform outcome of ExecuteSwap. On success Signature is
// set; on failure ErrorMessage is set and Err holds the typed cause.
type SwapResult struct {
	ExecutionID  string        `json:"executionId"`
	Outcome      Outcome       `json:"outcome"`
	Signature    string        `json:"signature,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	Err          error         `json:"-"`
	Backend      string        `json:"backend"`
	Quote        *Quote        `json:"quote,omitempty"`
	Duration     time.Duration `json:"duration"`
	States       []State       `json:"states"`
}

// Succeeded is shorthand for Outcome == OutcomeSuccess.
func (r *SwapResult) Succeeded() bool { return r.Outcome == OutcomeSuccess }
