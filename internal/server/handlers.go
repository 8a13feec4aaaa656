package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/flags"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/storage"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

// SwapEngine is implemented by *swapengine.Engine.
type SwapEngine interface {
	Network() network.Network
	Backend() string
	GetQuote(ctx context.Context, req swapengine.QuoteRequest) (*swapengine.Quote, error)
	ExecuteSwap(ctx context.Context, req swapengine.SwapRequest) *swapengine.SwapResult
}

// WalletReader is implemented by *wallet.Wallet.
type WalletReader interface {
	Snapshot(ctx context.Context, owner, stableMint solana.PublicKey) (wallet.Balances, error)
	DetailedHistory(ctx context.Context, owner solana.PublicKey, limit int) ([]wallet.TransactionInfo, error)
}

// SwapHistory is the part of storage.SwapStore the API reads.
type SwapHistory interface {
	RecentSwaps(ctx context.Context, wallet string, limit int) ([]*models.SwapEvent, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine   SwapEngine
	Endpoint string            // RPC endpoint the engine was built for
	Wallet   WalletReader      // nil disables /v1/wallet
	Signer   *wallet.Keys      // server wallet; nil disables /v1/swap
	Cache    storage.SwapCache // Redis-backed swap data cache
	Store    SwapHistory       // ClickHouse swap records (optional)
	Flags    *flags.Store      // Redis-backed feature flags store
	DevMode  bool              // Enable detailed error responses in development
	Logger   *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) log() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// queryLimit parses ?limit= with a default and an upper bound.
func queryLimit(c echo.Context, def, max int) (int, bool) {
	s := c.QueryParam("limit")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Network reports which network and backend requests will be routed to
func (h *Handlers) Network(c echo.Context) error {
	return c.JSON(http.StatusOK, NetworkResponse{
		Network:  h.Engine.Network().String(),
		Endpoint: h.Endpoint,
		Backend:  h.Engine.Backend(),
	})
}

// RecentSwaps returns the most recent swap events with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-200)
func (h *Handlers) RecentSwaps(c echo.Context) error {
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "swap cache is not configured", nil)
	}
	limit, ok := queryLimit(c, 100, 200)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Cache.GetRecentSwaps(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// SwapHistory returns executed swaps from ClickHouse, optionally for one wallet
func (h *Handlers) SwapHistory(c echo.Context) error {
	if h.Store == nil {
		return h.err(c, http.StatusServiceUnavailable, "swap store is not configured", nil)
	}
	limit, ok := queryLimit(c, 50, 500)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 500"})
	}
	addr := c.QueryParam("wallet")
	if addr != "" {
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid wallet", map[string]any{"wallet": err.Error()})
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Store.RecentSwaps(ctx, addr, limit)
	if err != nil {
		h.log().WithError(err).Warn("swap history query failed")
		return h.err(c, http.StatusInternalServerError, "failed to get swap history", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// WalletInfo returns the server wallet's address and balances
func (h *Handlers) WalletInfo(c echo.Context) error {
	if h.Signer == nil || h.Wallet == nil {
		return h.err(c, http.StatusServiceUnavailable, "wallet is not configured", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	net := h.Engine.Network()
	b, err := h.Wallet.Snapshot(ctx, h.Signer.PublicKey, network.StableMint(net))
	if err != nil {
		return h.err(c, http.StatusBadGateway, "failed to fetch balance", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, WalletResponse{
		Address: h.Signer.Address(),
		Network: net.String(),
		SOL:     b.SOL,
		USDC:    b.USDC,
	})
}

// WalletHistory returns parsed recent transactions of the server wallet
func (h *Handlers) WalletHistory(c echo.Context) error {
	if h.Signer == nil || h.Wallet == nil {
		return h.err(c, http.StatusServiceUnavailable, "wallet is not configured", nil)
	}
	limit, ok := queryLimit(c, constants.DefaultHistoryLimit, 50)
	if !ok {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 50"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	items, err := h.Wallet.DetailedHistory(ctx, h.Signer.PublicKey, limit)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "failed to fetch history", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// GenerateKeys creates a throwaway keypair and returns its export document.
// Nothing is stored server side.
func (h *Handlers) GenerateKeys(c echo.Context) error {
	raw, err := wallet.Export(wallet.Generate(), time.Now())
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to generate keys", nil)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// FlagsUpsert creates or updates a feature flag with the given key and value
// Validates key format and returns the created/updated flag
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
// Returns 404 if flag doesn't exist
func (h *Handlers) FlagsGet(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags in the system
func (h *Handlers) FlagsList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Flags.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
// Returns 204 No Content on successful deletion
func (h *Handlers) FlagsDelete(c echo.Context) error {
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}
