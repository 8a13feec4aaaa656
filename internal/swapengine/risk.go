package swapengine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

const solDecimals = 9

// checkFunds requires the trade amount plus the fee buffer. Native input
// is checked against lamports; token input against the token balance, with
// lamports still needed for fees.
func (e *Engine) checkFunds(ctx context.Context, owner solana.PublicKey, order Order, amountHuman float64) error {
	lamports, err := e.funds.Balance(ctx, owner)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	fields := logrus.Fields{
		"owner":      owner.String(),
		"lamports":   lamports,
		"amount":     order.AmountBase,
		"fee_buffer": e.feeBuffer,
	}

	if order.InputMint.Equals(network.NativeMint()) {
		if lamports < order.AmountBase || lamports-order.AmountBase < e.feeBuffer {
			e.logger.WithFields(fields).Info("swap rejected: insufficient SOL")
			return &InsufficientBalanceError{
				Available: units.FromBaseUnitsFloat(lamports, solDecimals),
				Requested: units.FormatHuman(amountHuman),
				Symbol:    "SOL",
			}
		}
		return nil
	}

	tokens, err := e.funds.TokenBalance(ctx, owner, order.InputMint)
	if err != nil {
		return fmt.Errorf("fetch token balance: %w", err)
	}
	fields["token_balance"] = tokens

	if tokens < order.AmountBase {
		e.logger.WithFields(fields).Info("swap rejected: insufficient token balance")
		return &InsufficientBalanceError{
			Available: units.FromBaseUnitsFloat(tokens, order.InDecimals),
			Requested: units.FormatHuman(amountHuman),
			Symbol:    constants.Symbol(order.InputMint.String()),
		}
	}
	if lamports < e.feeBuffer {
		e.logger.WithFields(fields).Info("swap rejected: no SOL left for fees")
		return &InsufficientBalanceError{
			Available: units.FromBaseUnitsFloat(lamports, solDecimals),
			Requested: units.Format(e.feeBuffer, solDecimals, 5),
			Symbol:    "SOL",
		}
	}
	return nil
}
