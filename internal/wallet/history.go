package wallet

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

type TxType string

const (
	TxSent     TxType = "sent"
	TxReceived TxType = "received"
	TxUnknown  TxType = "unknown"
)

type TxStatus string

const (
	StatusConfirmed TxStatus = "confirmed"
	StatusFailed    TxStatus = "failed"
	StatusUnknown   TxStatus = "unknown"
)

// TransactionInfo is one parsed history entry.
type TransactionInfo struct {
	Signature    string   `json:"signature"`
	Timestamp    *int64   `json:"timestamp"`
	Amount       float64  `json:"amount"` // SOL
	Type         TxType   `json:"type"`
	Counterparty string   `json:"counterparty,omitempty"`
	Status       TxStatus `json:"status"`
}

// History returns the most recent signatures for owner.
func (w *Wallet) History(ctx context.Context, owner solana.PublicKey, limit int) ([]rpc.SignatureInfo, error) {
	if limit <= 0 {
		limit = constants.DefaultHistoryLimit
	}
	sigs, err := w.rpc.GetSignaturesForAddress(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}
	return sigs, nil
}

// DetailedHistory fetches each recent transaction and reads the first System
// Program instruction as a transfer. Transactions that cannot be fetched are
// logged and skipped.
func (w *Wallet) DetailedHistory(ctx context.Context, owner solana.PublicKey, limit int) ([]TransactionInfo, error) {
	sigs, err := w.History(ctx, owner, limit)
	if err != nil {
		return nil, err
	}

	out := make([]TransactionInfo, 0, len(sigs))
	for _, sig := range sigs {
		tx, err := w.rpc.GetTransaction(ctx, sig.Signature)
		if err != nil {
			w.logger.WithError(err).WithField("signature", sig.Signature).Warn("failed to fetch transaction")
			continue
		}
		if tx == nil || tx.Transaction == nil {
			continue
		}

		info := parseTransfer(tx.Transaction, owner.String())
		info.Signature = sig.Signature
		info.Timestamp = tx.BlockTime
		info.Status = StatusUnknown
		if sig.ConfirmationStatus == "confirmed" {
			info.Status = StatusConfirmed
		}
		out = append(out, info)
	}

	w.logger.WithFields(logrus.Fields{
		"owner":   owner.String(),
		"fetched": len(sigs),
		"parsed":  len(out),
	}).Debug("history loaded")

	return out, nil
}

func parseTransfer(tx *rpc.Transaction, owner string) TransactionInfo {
	info := TransactionInfo{Type: TxUnknown}
	keys := tx.Message.AccountKeys
	key := func(i int) string {
		if i < 0 || i >= len(keys) {
			return ""
		}
		return keys[i]
	}

	for _, ix := range tx.Message.Instructions {
		if key(ix.ProgramIDIndex) != solana.SystemProgramID.String() {
			continue
		}

		// u32 instruction index, then u64 lamports
		if data, err := base58.Decode(ix.Data); err == nil && len(data) >= 12 {
			info.Amount = units.FromBaseUnitsFloat(binary.LittleEndian.Uint64(data[4:12]), 9)
		}

		var from, to string
		if len(ix.Accounts) > 0 {
			from = key(ix.Accounts[0])
		}
		if len(ix.Accounts) > 1 {
			to = key(ix.Accounts[1])
		}
		switch owner {
		case from:
			info.Type = TxSent
			info.Counterparty = to
		case to:
			info.Type = TxReceived
			info.Counterparty = from
		}
		break
	}
	return info
}
