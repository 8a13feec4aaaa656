package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/cache"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/flags"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

type fakeEngine struct {
	net      network.Network
	quoteErr error
	swapErr  string
	lastReq  swapengine.SwapRequest
	lastQ    swapengine.QuoteRequest
}

func (f *fakeEngine) Network() network.Network { return f.net }
func (f *fakeEngine) Backend() string          { return swapengine.BackendOrca }

func (f *fakeEngine) GetQuote(ctx context.Context, req swapengine.QuoteRequest) (*swapengine.Quote, error) {
	f.lastQ = req
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &swapengine.Quote{
		Backend:      swapengine.BackendOrca,
		InputMint:    network.NativeMint(),
		OutputMint:   network.StableMint(f.net),
		InAmount:     500_000_000,
		OutAmount:    48_000_000,
		MinOutAmount: 47_520_000,
		InDecimals:   9,
		OutDecimals:  6,
		SlippageBps:  100,
		RouteSteps:   []swapengine.RouteStep{},
	}, nil
}

func (f *fakeEngine) ExecuteSwap(ctx context.Context, req swapengine.SwapRequest) *swapengine.SwapResult {
	f.lastReq = req
	if f.swapErr != "" {
		return &swapengine.SwapResult{
			ExecutionID:  "exec-f",
			Outcome:      swapengine.OutcomeFailure,
			ErrorMessage: f.swapErr,
			Backend:      swapengine.BackendOrca,
			States:       []swapengine.State{swapengine.StateIdle, swapengine.StateFailed},
		}
	}
	return &swapengine.SwapResult{
		ExecutionID: "exec-s",
		Outcome:     swapengine.OutcomeSuccess,
		Signature:   "sig111",
		Backend:     swapengine.BackendOrca,
		States:      []swapengine.State{swapengine.StateIdle, swapengine.StateSucceeded},
	}
}

type fakeWallet struct{}

func (fakeWallet) Snapshot(ctx context.Context, owner, stable solana.PublicKey) (wallet.Balances, error) {
	return wallet.Balances{SOL: 1.5, USDC: 20}, nil
}

func (fakeWallet) DetailedHistory(ctx context.Context, owner solana.PublicKey, limit int) ([]wallet.TransactionInfo, error) {
	out := make([]wallet.TransactionInfo, limit)
	for i := range out {
		out[i] = wallet.TransactionInfo{Signature: "s", Type: wallet.TxSent, Status: wallet.StatusConfirmed}
	}
	return out, nil
}

type fakeHistory struct {
	wallet string
	limit  int
}

func (f *fakeHistory) RecentSwaps(ctx context.Context, w string, limit int) ([]*models.SwapEvent, error) {
	f.wallet, f.limit = w, limit
	return []*models.SwapEvent{{Signature: "a", Wallet: w}}, nil
}

type testAPI struct {
	handler http.Handler
	engine  *fakeEngine
	cache   *cache.RedisCache
	history *fakeHistory
}

func newTestAPI(t *testing.T, cfg ServerConfig, mutate ...func(*Handlers)) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	fs, err := flags.NewStore(client)
	require.NoError(t, err)

	api := &testAPI{
		engine:  &fakeEngine{net: network.Test},
		cache:   cache.NewRedisCacheFromClient(client, logger),
		history: &fakeHistory{},
	}
	h := &Handlers{
		Engine:   api.engine,
		Endpoint: "https://api.devnet.solana.com",
		Wallet:   fakeWallet{},
		Signer:   wallet.Generate(),
		Cache:    api.cache,
		Store:    api.history,
		Flags:    fs,
		DevMode:  true,
		Logger:   logger,
	}
	for _, m := range mutate {
		m(h)
	}
	srv, err := NewServer(ServerDeps{Handlers: h, Config: cfg})
	require.NoError(t, err)
	api.handler = srv.Handler()
	return api
}

func (a *testAPI) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndNetwork(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})

	rec := api.do(t, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = api.do(t, http.MethodGet, "/v1/network", "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[NetworkResponse](t, rec)
	assert.Equal(t, NetworkResponse{Network: "devnet", Endpoint: "https://api.devnet.solana.com", Backend: "orca"}, got)
}

func TestQuote(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})

	rec := api.do(t, http.MethodGet, "/v1/quote?amount=0.5&inputMint=SOL&outputMint=USDC", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "48.00", body["estimatedOut"])
	assert.Equal(t, "orca", body["backend"])
	assert.EqualValues(t, 47_520_000, body["minOutAmount"])
	assert.Equal(t, network.StableMint(network.Test), api.engine.lastQ.OutputMint)
	assert.InDelta(t, 0.5, api.engine.lastQ.AmountHuman, 1e-12)

	// omitted mints are left for the engine to default
	rec = api.do(t, http.MethodGet, "/v1/quote?amount=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, api.engine.lastQ.InputMint.IsZero())
}

func TestQuote_Errors(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})

	for _, target := range []string{
		"/v1/quote",
		"/v1/quote?amount=abc",
		"/v1/quote?amount=1&inputMint=not-a-mint",
	} {
		rec := api.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	api.engine.quoteErr = &swapengine.ValidationError{Field: "amount", Reason: "must be greater than 0"}
	rec := api.do(t, http.MethodGet, "/v1/quote?amount=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid amount: must be greater than 0", decode[ErrorResponse](t, rec).Error)

	api.engine.quoteErr = &swapengine.QuoteUnavailableError{Backend: "orca", Err: errors.New("rpc down")}
	rec = api.do(t, http.MethodGet, "/v1/quote?amount=1", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "quote unavailable", resp.Error)
	assert.NotNil(t, resp.Details, "dev mode includes details")
}

func TestSwap(t *testing.T) {
	api := newTestAPI(t, ServerConfig{SwapRatePerSecond: 100, SwapBurst: 10})

	rec := api.do(t, http.MethodPost, "/v1/swap", `{"amount":0.5,"inputMint":"SOL","outputMint":"USDC"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[swapengine.SwapResult](t, rec)
	assert.Equal(t, "sig111", res.Signature)
	assert.Equal(t, swapengine.OutcomeSuccess, res.Outcome)
	assert.NotNil(t, api.engine.lastReq.Signer)
	assert.Equal(t, network.NativeMint(), api.engine.lastReq.InputMint)

	api.engine.swapErr = "Swap failed: swap execution is paused"
	rec = api.do(t, http.MethodPost, "/v1/swap", `{"amount":0.5}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res = decode[swapengine.SwapResult](t, rec)
	assert.Equal(t, swapengine.OutcomeFailure, res.Outcome)
	assert.Empty(t, res.Signature)
	assert.Equal(t, "Swap failed: swap execution is paused", res.ErrorMessage)

	rec = api.do(t, http.MethodPost, "/v1/swap", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwap_NoWallet(t *testing.T) {
	api := newTestAPI(t, ServerConfig{}, func(h *Handlers) { h.Signer = nil })

	rec := api.do(t, http.MethodPost, "/v1/swap", `{"amount":0.5}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Nil(t, api.engine.lastReq.Signer)

	rec = api.do(t, http.MethodGet, "/v1/wallet", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSwap_RateLimited(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = api.do(t, http.MethodPost, "/v1/swap", `{"amount":0.5}`).Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestWalletRoutes(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})

	rec := api.do(t, http.MethodGet, "/v1/wallet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	w := decode[WalletResponse](t, rec)
	assert.Equal(t, "devnet", w.Network)
	assert.InDelta(t, 1.5, w.SOL, 1e-12)
	assert.InDelta(t, 20.0, w.USDC, 1e-12)

	rec = api.do(t, http.MethodGet, "/v1/wallet/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]wallet.TransactionInfo](t, rec)["items"], 10)

	rec = api.do(t, http.MethodGet, "/v1/wallet/history?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/v1/wallet/keys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	exp := decode[wallet.ExportFile](t, rec)
	keys, err := wallet.ParsePrivateKey(exp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, exp.PublicKey, keys.Address())
	assert.NotEmpty(t, exp.Warning)
}

func TestSwapsRecentAndHistory(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})
	ctx := context.Background()
	for _, sig := range []string{"one", "two"} {
		require.NoError(t, api.cache.AddRecentSwap(ctx, &models.SwapEvent{Signature: sig, Timestamp: time.Now()}))
	}

	rec := api.do(t, http.MethodGet, "/v1/swaps/recent?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[map[string][]models.SwapEvent](t, rec)["items"]
	require.Len(t, items, 1)
	assert.Equal(t, "two", items[0].Signature)

	rec = api.do(t, http.MethodGet, "/v1/swaps/recent?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	addr := solana.NewWallet().PublicKey().String()
	rec = api.do(t, http.MethodGet, "/v1/swaps/history?wallet="+addr, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, addr, api.history.wallet)
	assert.Equal(t, 50, api.history.limit)

	rec = api.do(t, http.MethodGet, "/v1/swaps/history?wallet=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlagsCRUD(t *testing.T) {
	api := newTestAPI(t, ServerConfig{})

	rec := api.do(t, http.MethodPost, "/v1/flags", `{"key":"swap.execute.paused","value":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[flags.Flag](t, rec).Value)

	rec = api.do(t, http.MethodPut, "/v1/flags/swap.execute.paused", `{"value":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/flags/swap.execute.paused", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[flags.Flag](t, rec).Value)

	rec = api.do(t, http.MethodGet, "/v1/flags", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]flags.Flag](t, rec)["items"], 1)

	rec = api.do(t, http.MethodDelete, "/v1/flags/swap.execute.paused", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/flags/swap.execute.paused", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/flags/bad%20key", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKeyAndFallbacks(t *testing.T) {
	api := newTestAPI(t, ServerConfig{APIKey: "secret"})

	rec := api.do(t, http.MethodGet, "/v1/health", "", "X-API-Key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/health", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/v1/nope", "", "X-API-Key", "secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[ErrorResponse](t, rec).Code)

	// scrapes do not carry the key
	rec = api.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
