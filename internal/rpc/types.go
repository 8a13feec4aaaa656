package rpc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *uint
}

// SignatureInfo represents a transaction signature from getSignaturesForAddress
type SignatureInfo struct {
	Signature          string      `json:"signature"`
	Slot               int64       `json:"slot"`
	Err                interface{} `json:"err"`
	Memo               *string     `json:"memo"`
	BlockTime          *int64      `json:"blockTime"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// SignatureStatus is one entry of getSignatureStatuses.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// Failed reports whether the transaction landed with an execution error.
func (s *SignatureStatus) Failed() bool { return s != nil && s.Err != nil }

// AccountData is the ["<base64>", "base64"] pair returned for base64 encoded
// accounts.
type AccountData []byte

func (d *AccountData) UnmarshalJSON(b []byte) error {
	var pair []string
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	if len(pair) == 0 {
		*d = nil
		return nil
	}
	if len(pair) > 1 && pair[1] != "base64" {
		return fmt.Errorf("account data: unsupported encoding %q", pair[1])
	}
	raw, err := base64.StdEncoding.DecodeString(pair[0])
	if err != nil {
		return fmt.Errorf("account data: %w", err)
	}
	*d = raw
	return nil
}

// AccountInfo is a base64-encoded account returned by getAccountInfo.
type AccountInfo struct {
	Lamports   uint64      `json:"lamports"`
	Owner      string      `json:"owner"`
	Data       AccountData `json:"data"`
	Executable bool        `json:"executable"`
	RentEpoch  json.Number `json:"rentEpoch"`
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string   `json:"amount"`
	Decimals       uint8    `json:"decimals"`
	UIAmountString string   `json:"uiAmountString"`
	UIAmount       *float64 `json:"uiAmount"`
}

// Raw parses Amount as a base-unit integer.
func (t TokenAmount) Raw() (uint64, error) {
	if t.Amount == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(t.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", t.Amount, err)
	}
	return v, nil
}

// TokenAccount is a jsonParsed SPL token account from getTokenAccountsByOwner.
type TokenAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Lamports uint64 `json:"lamports"`
		Owner    string `json:"owner"`
		Data     struct {
			Program string `json:"program"`
			Parsed  struct {
				Type string `json:"type"`
				Info struct {
					Mint        string      `json:"mint"`
					Owner       string      `json:"owner"`
					State       string      `json:"state"`
					IsNative    bool        `json:"isNative"`
					TokenAmount TokenAmount `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

// TokenBalance represents a token balance entry
type TokenBalance struct {
	AccountIndex  int         `json:"accountIndex"`
	Mint          string      `json:"mint"`
	Owner         string      `json:"owner"`
	UITokenAmount TokenAmount `json:"uiTokenAmount"`
}

// TransactionMeta contains metadata about a transaction
type TransactionMeta struct {
	Err               interface{}    `json:"err"`
	Fee               uint64         `json:"fee"`
	PreBalances       []uint64       `json:"preBalances"`
	PostBalances      []uint64       `json:"postBalances"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
}

// CompiledInstruction is an instruction in "json" encoding: indexes into
// AccountKeys plus base58 data.
type CompiledInstruction struct {
	ProgramIDIndex int    `json:"programIdIndex"`
	Accounts       []int  `json:"accounts"`
	Data           string `json:"data"`
}

// TransactionMessage contains the transaction message
type TransactionMessage struct {
	AccountKeys  []string              `json:"accountKeys"`
	Instructions []CompiledInstruction `json:"instructions"`
}

// Transaction represents a transaction in "json" encoding
type Transaction struct {
	Signatures []string           `json:"signatures"`
	Message    TransactionMessage `json:"message"`
}

// TransactionResult contains the full transaction data
type TransactionResult struct {
	Slot        uint64           `json:"slot"`
	BlockTime   *int64           `json:"blockTime"`
	Meta        *TransactionMeta `json:"meta"`
	Transaction *Transaction     `json:"transaction"`
}

// Blockhash is the value of getLatestBlockhash.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
