package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
)

// parseMint resolves a SOL/USDC symbol or a base58 mint. Empty input stays
// the zero key so the engine applies its defaults.
func (h *Handlers) parseMint(s string) (solana.PublicKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return solana.PublicKey{}, nil
	}
	return network.ResolveToken(h.Engine.Network(), s)
}

// Quote prices a swap without executing it. amount is in human units.
func (h *Handlers) Quote(c echo.Context) error {
	amountStr := strings.TrimSpace(c.QueryParam("amount"))
	if amountStr == "" {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "required"})
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be a number"})
	}
	in, err := h.parseMint(c.QueryParam("inputMint"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": err.Error()})
	}
	out, err := h.parseMint(c.QueryParam("outputMint"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	q, err := h.Engine.GetQuote(ctx, swapengine.QuoteRequest{AmountHuman: amount, InputMint: in, OutputMint: out})
	if err != nil {
		var v *swapengine.ValidationError
		if errors.As(err, &v) {
			return h.err(c, http.StatusBadRequest, v.Error(), map[string]any{v.Field: v.Reason})
		}
		return h.err(c, http.StatusBadGateway, "quote unavailable", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, QuoteResponse{Quote: q, EstimatedOut: q.EstimatedOut()})
}

// Swap executes with the server wallet. Engine failures are reported as 422
// with the SwapResult body so callers always see the same shape.
func (h *Handlers) Swap(c echo.Context) error {
	if h.Signer == nil {
		return h.err(c, http.StatusServiceUnavailable, "wallet is not configured", nil)
	}
	var body SwapRequestBody
	if err := c.Bind(&body); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	in, err := h.parseMint(body.InputMint)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": err.Error()})
	}
	out, err := h.parseMint(body.OutputMint)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": err.Error()})
	}

	// the engine bounds confirmation itself; this only caps a stuck backend
	ctx, cancel := h.withTimeout(c.Request().Context(), 70*time.Second)
	defer cancel()

	res := h.Engine.ExecuteSwap(ctx, swapengine.SwapRequest{
		Signer:      h.Signer,
		AmountHuman: body.Amount,
		InputMint:   in,
		OutputMint:  out,
	})
	if !res.Succeeded() {
		h.log().WithFields(logrus.Fields{
			"execution_id": res.ExecutionID,
			"error":        res.ErrorMessage,
		}).Info("api swap failed")
		return c.JSON(http.StatusUnprocessableEntity, res)
	}
	return c.JSON(http.StatusOK, res)
}
