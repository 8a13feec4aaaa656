package swapengine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/jupiter"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/orca"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

const (
	devnetURL  = "https://api.devnet.solana.com"
	mainnetURL = "https://api.mainnet-beta.solana.com"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

type fakeChain struct {
	endpoint string

	mu          sync.Mutex
	sent        []*solana.Transaction
	sendOpts    []rpc.SendOptions
	sendErr     error
	confirmErr  error
	landedErr   any
	decimals    map[string]uint8
	decimalHits int
}

func (c *fakeChain) Endpoint() string { return c.endpoint }

func (c *fakeChain) GetMintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decimalHits++
	d, ok := c.decimals[mint.String()]
	if !ok {
		return 0, errors.New("mint not found")
	}
	return d, nil
}

func (c *fakeChain) SendTransaction(ctx context.Context, tx *solana.Transaction, opts rpc.SendOptions) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, tx)
	c.sendOpts = append(c.sendOpts, opts)
	if c.sendErr != nil {
		return solana.Signature{}, c.sendErr
	}
	return tx.Signatures[0], nil
}

func (c *fakeChain) ConfirmTransaction(ctx context.Context, sig solana.Signature, commitment string, timeout time.Duration) (*rpc.SignatureStatus, error) {
	if c.confirmErr != nil {
		return nil, c.confirmErr
	}
	return &rpc.SignatureStatus{Slot: 1, ConfirmationStatus: commitment, Err: c.landedErr}, nil
}

func (c *fakeChain) sends() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type fakeFunds struct {
	lamports uint64
	tokens   uint64
	calls    atomic.Int32
}

func (f *fakeFunds) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	f.calls.Add(1)
	return f.lamports, nil
}

func (f *fakeFunds) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	f.calls.Add(1)
	return f.tokens, nil
}

// fakePool quotes a fixed output and builds a versioned transfer paid by
// the owner.
type fakePool struct {
	amountOut uint64
	quoteErr  error

	finds, quotes, builds atomic.Int32
}

func (p *fakePool) FindPool(in, out solana.PublicKey) (*orca.Pool, error) {
	p.finds.Add(1)
	pool := orca.DevnetWhirlpool()
	if !((pool.TokenMintA.Equals(in) && pool.TokenMintB.Equals(out)) || (pool.TokenMintA.Equals(out) && pool.TokenMintB.Equals(in))) {
		return nil, orca.ErrPoolNotFound
	}
	return &pool, nil
}

func (p *fakePool) Quote(ctx context.Context, pool *orca.Pool, in solana.PublicKey, amountIn uint64, slippageBps uint16) (*orca.SwapQuote, error) {
	p.quotes.Add(1)
	if p.quoteErr != nil {
		return nil, p.quoteErr
	}
	return &orca.SwapQuote{
		Pool:         pool,
		InputMint:    in,
		OutputMint:   pool.OtherMint(in),
		AmountIn:     amountIn,
		AmountOut:    p.amountOut,
		MinAmountOut: orca.ApplySlippage(p.amountOut, slippageBps),
		SlippageBps:  slippageBps,
	}, nil
}

func (p *fakePool) BuildSwap(ctx context.Context, owner solana.PublicKey, q *orca.SwapQuote) (*orca.BuildResult, error) {
	p.builds.Add(1)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, owner, solana.NewWallet().PublicKey()).Build()},
		solana.Hash{3},
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return nil, err
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return &orca.BuildResult{Tx: tx, Blockhash: solana.Hash{3}}, nil
}

// jupiterServer serves /quote and /swap and counts every request.
type jupiterServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newJupiterServer(t *testing.T, outAmount string) *jupiterServer {
	t.Helper()
	js := &jupiterServer{}
	js.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		js.hits.Add(1)
		switch r.URL.Path {
		case "/quote":
			q := r.URL.Query()
			_ = json.NewEncoder(w).Encode(jupiter.QuoteResponse{
				InputMint:            q.Get("inputMint"),
				OutputMint:           q.Get("outputMint"),
				InAmount:             q.Get("amount"),
				OutAmount:            outAmount,
				OtherAmountThreshold: outAmount,
				SwapMode:             "ExactIn",
				SlippageBps:          50,
				PriceImpactPct:       "0.0012",
				RoutePlan: []jupiter.RoutePlanStep{{
					SwapInfo: jupiter.SwapInfo{
						AmmKey:     "Amm111",
						Label:      "Whirlpool",
						InputMint:  q.Get("inputMint"),
						OutputMint: q.Get("outputMint"),
					},
					Bps: 10000,
				}},
			})
		case "/swap":
			var body jupiter.SwapRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			user := solana.MustPublicKeyFromBase58(body.UserPublicKey)
			_ = json.NewEncoder(w).Encode(jupiter.SwapResponse{
				SwapTransaction:      unsignedTxBase64(t, user),
				LastValidBlockHeight: 100,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(js.Close)
	return js
}

func unsignedTxBase64(t *testing.T, payer solana.PublicKey) string {
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer, solana.NewWallet().PublicKey()).Build()},
		solana.Hash{5},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

type fakeFlags map[string]bool

func (f fakeFlags) Enabled(ctx context.Context, key string) (bool, error) { return f[key], nil }

type fakeRecorder struct {
	mu      sync.Mutex
	results []*SwapResult
}

func (r *fakeRecorder) Record(ctx context.Context, req SwapRequest, res *SwapResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

type harness struct {
	engine   *Engine
	chain    *fakeChain
	funds    *fakeFunds
	pool     *fakePool
	jup      *jupiterServer
	recorder *fakeRecorder
	keys     *wallet.Keys
}

func newHarness(t *testing.T, endpoint string, mutate ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		chain:    &fakeChain{endpoint: endpoint, decimals: map[string]uint8{}},
		funds:    &fakeFunds{lamports: 2_000_000_000, tokens: 100_000_000},
		pool:     &fakePool{amountOut: 48_000_000},
		jup:      newJupiterServer(t, "48000000"),
		recorder: &fakeRecorder{},
		keys:     wallet.Generate(),
	}
	cfg := Config{
		Chain:          h.chain,
		Funds:          h.funds,
		Pool:           h.pool,
		Aggregator:     jupiter.NewClient(h.jup.URL, ""),
		Recorder:       h.recorder,
		Logger:         quietLogger(),
		ConfirmTimeout: time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	h.engine = e
	return h
}

func (h *harness) swap(amount float64) *SwapResult {
	return h.engine.ExecuteSwap(context.Background(), SwapRequest{Signer: h.keys, AmountHuman: amount})
}

func (h *harness) networkCalls() int32 {
	return h.pool.finds.Load() + h.pool.quotes.Load() + h.pool.builds.Load() +
		h.jup.hits.Load() + h.funds.calls.Load() + int32(h.chain.sends()) + int32(h.chain.decimalHits)
}

var usdcDevnet = network.StableMint(network.Test)
