package swapengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/metrics"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/txsign"
)

// execution tracks the state machine of one ExecuteSwap call.
type execution struct {
	engine *Engine
	result *SwapResult
	log    *logrus.Entry
}

func (x *execution) current() State {
	return x.result.States[len(x.result.States)-1]
}

func (x *execution) to(next State) {
	from := x.current()
	if from.Terminal() {
		return
	}
	x.result.States = append(x.result.States, next)
	x.log.WithFields(logrus.Fields{"from": from, "to": next}).Debug("swap state")
	if x.engine.onTransition != nil {
		x.engine.onTransition(Transition{
			ExecutionID: x.result.ExecutionID,
			From:        from,
			To:          next,
			At:          time.Now(),
		})
	}
}

func (x *execution) fail(err error) *SwapResult {
	x.to(StateFailed)
	x.result.Outcome = OutcomeFailure
	x.result.Err = err
	x.result.ErrorMessage = failureMessage(err)
	x.result.Signature = ""
	return x.result
}

// ExecuteSwap re-checks funds, re-quotes, builds, signs, submits and
// confirms. It never returns an error: every failure is reported in the
// result.
func (e *Engine) ExecuteSwap(ctx context.Context, req SwapRequest) (res *SwapResult) {
	start := time.Now()
	x := &execution{
		engine: e,
		result: &SwapResult{
			ExecutionID: uuid.NewString(),
			Backend:     e.backend.Name(),
			States:      []State{StateIdle},
		},
	}
	x.log = e.logger.WithFields(logrus.Fields{
		"execution_id": x.result.ExecutionID,
		"backend":      e.backend.Name(),
	})

	defer func() {
		if r := recover(); r != nil {
			res = x.fail(fmt.Errorf("unexpected panic: %v", r))
		}
		res.Duration = time.Since(start)
		metrics.IncSwap(res.Backend, string(res.Outcome))
		metrics.ObserveSwap(res.Backend, start)

		fields := logrus.Fields{"outcome": res.Outcome, "took": res.Duration}
		if res.Succeeded() {
			x.log.WithFields(fields).WithField("signature", res.Signature).Info("swap executed")
			if e.recorder != nil {
				e.recorder.Record(ctx, req, res)
			}
		} else {
			x.log.WithFields(fields).WithField("error", res.ErrorMessage).Warn("swap failed")
		}
	}()

	return e.execute(ctx, x, req)
}

func (e *Engine) execute(ctx context.Context, x *execution, req SwapRequest) *SwapResult {
	if req.Signer == nil {
		return x.fail(&ValidationError{Field: "signer", Reason: "required"})
	}
	order, err := e.prepare(ctx, req.quoteRequest())
	if err != nil {
		return x.fail(err)
	}
	owner := req.Signer.PublicKey
	x.log = x.log.WithField("owner", owner.String())

	if e.flags != nil {
		paused, err := e.flags.Enabled(ctx, constants.FlagSwapExecutePause)
		if err != nil {
			x.log.WithError(err).Warn("flag lookup failed, treating swaps as enabled")
		}
		if paused {
			return x.fail(ErrSwapsPaused)
		}
	}

	if err := e.checkFunds(ctx, owner, order, req.AmountHuman); err != nil {
		return x.fail(err)
	}

	x.to(StateQuoting)
	quote, err := e.quote(ctx, order)
	if err != nil {
		x.to(StateQuoteFailed)
		return x.fail(err)
	}
	x.result.Quote = quote
	x.to(StateQuoted)

	x.to(StateBuilding)
	env, err := e.backend.Build(ctx, owner, quote)
	if err != nil {
		return x.fail(fmt.Errorf("build transaction: %w", err))
	}

	x.to(StateSigning)
	signed, err := txsign.Sign(env, req.Signer.PrivateKey)
	if err != nil {
		return x.fail(err)
	}

	x.to(StateSubmitting)
	sig, err := e.chain.SendTransaction(ctx, signed.Tx, e.backend.SendOptions())
	if err != nil {
		return x.fail(&SubmissionError{Err: err})
	}
	x.log.WithField("signature", sig.String()).Info("swap submitted")

	x.to(StateConfirming)
	status, err := e.chain.ConfirmTransaction(ctx, sig, constants.ConfirmCommitment, e.confirmTimeout)
	if err != nil {
		return x.fail(fmt.Errorf("confirm %s: %w", sig, err))
	}
	if status.Failed() {
		return x.fail(&ExecutionError{Signature: sig.String(), Detail: fmt.Sprint(status.Err)})
	}

	x.to(StateSucceeded)
	x.result.Outcome = OutcomeSuccess
	x.result.Signature = sig.String()
	return x.result
}

// IsExecutionError reports whether err is a landed-but-failed transaction
// and returns its signature.
func IsExecutionError(err error) (string, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Signature, true
	}
	return "", false
}
