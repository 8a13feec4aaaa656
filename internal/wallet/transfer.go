package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/txsign"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/units"
)

// InsufficientBalanceError is returned before anything is sent.
type InsufficientBalanceError struct {
	AvailableSOL float64
	RequestedSOL float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("Insufficient balance. You have %.2f SOL but trying to send %s SOL",
		e.AvailableSOL, units.FormatHuman(e.RequestedSOL))
}

// TransferError wraps every other SendSOL failure. Signature is set when the
// transaction reached the cluster.
type TransferError struct {
	Signature solana.Signature
	Err       error
}

func (e *TransferError) Error() string { return "Transaction failed: " + e.Err.Error() }
func (e *TransferError) Unwrap() error { return e.Err }

var ErrTransactionReverted = errors.New("transaction reverted")

// SendSOL transfers amountSOL (floored to lamports) from keys to recipient and
// waits for "confirmed".
func (w *Wallet) SendSOL(ctx context.Context, keys *Keys, recipient string, amountSOL float64) (solana.Signature, error) {
	fail := func(err error) (solana.Signature, error) {
		return solana.Signature{}, &TransferError{Err: err}
	}
	if keys == nil {
		return fail(fmt.Errorf("no wallet keys"))
	}

	to, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return fail(fmt.Errorf("invalid recipient address: %w", err))
	}
	lamports, err := units.ToBaseUnits(amountSOL, 9)
	if err != nil {
		return fail(err)
	}

	balance, err := w.BalanceSOL(ctx, keys.PublicKey)
	if err != nil {
		return fail(err)
	}
	if balance < amountSOL {
		return solana.Signature{}, &InsufficientBalanceError{AvailableSOL: balance, RequestedSOL: amountSOL}
	}

	blockhash, err := w.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to get blockhash: %w", err))
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(lamports, keys.PublicKey, to).Build()},
		blockhash,
		solana.TransactionPayer(keys.PublicKey),
	)
	if err != nil {
		return fail(fmt.Errorf("failed to create transaction: %w", err))
	}

	env, err := txsign.Sign(tx, keys.PrivateKey)
	if err != nil {
		return fail(err)
	}

	sig, err := w.rpc.SendTransaction(ctx, env.Tx, rpc.SendOptions{PreflightCommitment: "processed"})
	if err != nil {
		return fail(err)
	}

	log := w.logger.WithFields(logrus.Fields{
		"signature": sig.String(),
		"to":        to.String(),
		"lamports":  lamports,
	})
	log.Info("transfer submitted")

	status, err := w.rpc.ConfirmTransaction(ctx, sig, constants.ConfirmCommitment, w.confirmTimeout)
	if err != nil {
		return sig, &TransferError{Signature: sig, Err: err}
	}
	if status.Failed() {
		return sig, &TransferError{Signature: sig, Err: fmt.Errorf("%w: %v", ErrTransactionReverted, status.Err)}
	}

	log.Info("transfer confirmed")
	return sig, nil
}
