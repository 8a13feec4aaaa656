package wallet

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcHandler func(req rpcRequest) any

// newTestWallet serves JSON-RPC from handlers keyed by method and counts calls.
func newTestWallet(t *testing.T, handlers map[string]rpcHandler) (*Wallet, *sync.Map) {
	t.Helper()
	calls := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		n, _ := calls.LoadOrStore(req.Method, new(int32))
		atomic.AddInt32(n.(*int32), 1)

		h, ok := handlers[req.Method]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "error": map[string]any{"code": -32601, "message": "unexpected " + req.Method}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": h(req)})
	}))
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	w, err := New(Config{
		RPCClient:      rpc.NewClient(rpc.ClientConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: logger}),
		Logger:         logger,
		ConfirmTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return w, calls
}

func callCount(calls *sync.Map, method string) int32 {
	n, ok := calls.Load(method)
	if !ok {
		return 0
	}
	return atomic.LoadInt32(n.(*int32))
}

func value(v any) any {
	return map[string]any{"context": map[string]any{"slot": 1}, "value": v}
}

func balance(lamports uint64) rpcHandler {
	return func(rpcRequest) any { return value(lamports) }
}

func blockhash(rpcRequest) any {
	return value(map[string]any{"blockhash": solana.Hash{5}.String(), "lastValidBlockHeight": 10})
}

func statuses(err any) rpcHandler {
	return func(rpcRequest) any {
		return value([]any{map[string]any{"slot": 3, "err": err, "confirmationStatus": "confirmed"}})
	}
}

func TestBalanceSOL(t *testing.T) {
	w, _ := newTestWallet(t, map[string]rpcHandler{"getBalance": balance(2_500_000_000)})
	sol, err := w.BalanceSOL(context.Background(), Generate().PublicKey)
	require.NoError(t, err)
	assert.Equal(t, 2.5, sol)
}

func TestTokenBalance(t *testing.T) {
	account := func(amount string) map[string]any {
		return map[string]any{"pubkey": "x", "account": map[string]any{"data": map[string]any{"parsed": map[string]any{
			"info": map[string]any{"tokenAmount": map[string]any{"amount": amount, "decimals": 6}},
		}}}}
	}

	w, _ := newTestWallet(t, map[string]rpcHandler{
		"getTokenAccountsByOwner": func(rpcRequest) any { return value([]any{account("40000000"), account("8000000")}) },
	})
	raw, err := w.TokenBalance(context.Background(), Generate().PublicKey, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(48_000_000), raw)

	empty, _ := newTestWallet(t, map[string]rpcHandler{
		"getTokenAccountsByOwner": func(rpcRequest) any { return value([]any{}) },
	})
	raw, err = empty.TokenBalance(context.Background(), Generate().PublicKey, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Zero(t, raw)
}

func TestSendSOL_Success(t *testing.T) {
	keys := Generate()
	to := Generate().PublicKey
	var sent solana.Signature

	w, calls := newTestWallet(t, map[string]rpcHandler{
		"getBalance":         balance(2_000_000_000),
		"getLatestBlockhash": blockhash,
		"sendTransaction": func(req rpcRequest) any {
			var b64 string
			require.NoError(t, json.Unmarshal(req.Params[0], &b64))
			raw, err := base64.StdEncoding.DecodeString(b64)
			require.NoError(t, err)
			tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
			require.NoError(t, err)
			require.NoError(t, tx.VerifySignatures())
			sent = tx.Signatures[0]
			return sent.String()
		},
		"getSignatureStatuses": statuses(nil),
	})

	sig, err := w.SendSOL(context.Background(), keys, to.String(), 1.5)
	require.NoError(t, err)
	assert.Equal(t, sent, sig)
	assert.Equal(t, int32(1), callCount(calls, "sendTransaction"))
}

func TestSendSOL_InsufficientBalance(t *testing.T) {
	w, calls := newTestWallet(t, map[string]rpcHandler{"getBalance": balance(500_000_000)})

	_, err := w.SendSOL(context.Background(), Generate(), Generate().Address(), 1)
	var ib *InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, "Insufficient balance. You have 0.50 SOL but trying to send 1 SOL", err.Error())
	assert.Zero(t, callCount(calls, "sendTransaction"))
}

func TestSendSOL_InvalidRecipient(t *testing.T) {
	w, calls := newTestWallet(t, nil)

	_, err := w.SendSOL(context.Background(), Generate(), "not-an-address", 1)
	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, err.Error(), "Transaction failed: invalid recipient address")
	assert.Zero(t, callCount(calls, "getBalance"))
}

func TestSendSOL_Reverted(t *testing.T) {
	w, _ := newTestWallet(t, map[string]rpcHandler{
		"getBalance":           balance(2_000_000_000),
		"getLatestBlockhash":   blockhash,
		"sendTransaction":      func(rpcRequest) any { return solana.Signature{1}.String() },
		"getSignatureStatuses": statuses(map[string]any{"InstructionError": []any{0, "Custom"}}),
	})

	sig, err := w.SendSOL(context.Background(), Generate(), Generate().Address(), 0.1)
	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, ErrTransactionReverted)
	assert.Equal(t, solana.Signature{1}, sig)
	assert.Equal(t, sig, te.Signature)
}

func transferData(lamports uint64) string {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return base58.Encode(data)
}

func TestDetailedHistory(t *testing.T) {
	owner := Generate().PublicKey
	other := Generate().PublicKey
	blockTime := int64(1_700_000_000)

	txs := map[string]any{
		"sig-sent": map[string]any{
			"slot": 1, "blockTime": blockTime,
			"transaction": map[string]any{"signatures": []string{"sig-sent"}, "message": map[string]any{
				"accountKeys":  []string{owner.String(), other.String(), solana.SystemProgramID.String()},
				"instructions": []any{map[string]any{"programIdIndex": 2, "accounts": []int{0, 1}, "data": transferData(250_000_000)}},
			}},
		},
		"sig-received": map[string]any{
			"slot": 2,
			"transaction": map[string]any{"signatures": []string{"sig-received"}, "message": map[string]any{
				"accountKeys":  []string{other.String(), owner.String(), solana.SystemProgramID.String()},
				"instructions": []any{map[string]any{"programIdIndex": 2, "accounts": []int{0, 1}, "data": transferData(1_000_000_000)}},
			}},
		},
	}

	w, _ := newTestWallet(t, map[string]rpcHandler{
		"getSignaturesForAddress": func(req rpcRequest) any {
			return []any{
				map[string]any{"signature": "sig-sent", "slot": 1, "confirmationStatus": "confirmed"},
				map[string]any{"signature": "sig-missing", "slot": 1, "confirmationStatus": "confirmed"},
				map[string]any{"signature": "sig-received", "slot": 2, "confirmationStatus": "finalized"},
			}
		},
		"getTransaction": func(req rpcRequest) any {
			var sig string
			require.NoError(t, json.Unmarshal(req.Params[0], &sig))
			return txs[sig]
		},
	})

	history, err := w.DetailedHistory(context.Background(), owner, 3)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, TxSent, history[0].Type)
	assert.Equal(t, 0.25, history[0].Amount)
	assert.Equal(t, other.String(), history[0].Counterparty)
	assert.Equal(t, StatusConfirmed, history[0].Status)
	require.NotNil(t, history[0].Timestamp)
	assert.Equal(t, blockTime, *history[0].Timestamp)

	assert.Equal(t, TxReceived, history[1].Type)
	assert.Equal(t, 1.0, history[1].Amount)
	assert.Equal(t, StatusUnknown, history[1].Status, "only confirmed maps to confirmed")
}

func TestBalancePoller(t *testing.T) {
	w, _ := newTestWallet(t, map[string]rpcHandler{
		"getBalance":              balance(1_000_000_000),
		"getTokenAccountsByOwner": func(rpcRequest) any { return value([]any{}) },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Balances, 4)
	p := NewBalancePoller(BalancePollerConfig{
		Wallet:     w,
		Owner:      Generate().PublicKey,
		StableMint: solana.NewWallet().PublicKey(),
		Interval:   10 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() {
		done <- p.Start(ctx, func(_ context.Context, b Balances) {
			select {
			case got <- b:
			default:
			}
		})
	}()

	select {
	case b := <-got:
		assert.Equal(t, 1.0, b.SOL)
		assert.Zero(t, b.USDC)
	case <-time.After(2 * time.Second):
		t.Fatal("no balance snapshot")
	}

	require.Error(t, p.Start(ctx, func(context.Context, Balances) {}), "second start is rejected")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
