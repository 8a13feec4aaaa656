package orca

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/rpc"
)

type testPool struct {
	mintA, mintB   solana.PublicKey
	vaultA, vaultB solana.PublicKey
	spacing        uint16
	feeRate        uint16
	liquidity      uint64
	sqrtPriceLo    uint64
	sqrtPriceHi    uint64
	tick           int32
}

func putU128(b []byte, lo, hi uint64) {
	binary.LittleEndian.PutUint64(b[0:8], lo)
	binary.LittleEndian.PutUint64(b[8:16], hi)
}

func encodeWhirlpool(p testPool) []byte {
	data := make([]byte, WhirlpoolSize)
	copy(data[0:8], whirlpoolDiscriminator[:])
	binary.LittleEndian.PutUint16(data[41:43], p.spacing)
	binary.LittleEndian.PutUint16(data[45:47], p.feeRate)
	putU128(data[49:65], p.liquidity, 0)
	putU128(data[65:81], p.sqrtPriceLo, p.sqrtPriceHi)
	binary.LittleEndian.PutUint32(data[81:85], uint32(p.tick))
	copy(data[101:133], p.mintA.Bytes())
	copy(data[133:165], p.vaultA.Bytes())
	copy(data[181:213], p.mintB.Bytes())
	copy(data[213:245], p.vaultB.Bytes())
	return data
}

// encodeTickArray marks the given offsets initialized with a positive
// liquidity net.
func encodeTickArray(start int32, pool solana.PublicKey, nets map[int]uint64) []byte {
	data := make([]byte, TickArrayBytes)
	copy(data[0:8], tickArrayDiscriminator[:])
	binary.LittleEndian.PutUint32(data[8:12], uint32(start))
	for i, net := range nets {
		off := 12 + i*113
		data[off] = 1
		putU128(data[off+1:off+17], net, 0)
		putU128(data[off+17:off+33], net, 0)
	}
	copy(data[12+TickArraySize*113:], pool.Bytes())
	return data
}

type rpcReq struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeChain serves just enough JSON-RPC for quoting and building.
type fakeChain struct {
	mu       sync.Mutex
	accounts map[string][]byte
	calls    map[string]int
}

func newFakeChain() *fakeChain {
	return &fakeChain{accounts: map[string][]byte{}, calls: map[string]int{}}
}

func (f *fakeChain) set(key solana.PublicKey, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[key.String()] = data
}

func (f *fakeChain) account(key string) any {
	data, ok := f.accounts[key]
	if !ok {
		return nil
	}
	return map[string]any{
		"lamports":   1,
		"owner":      WhirlpoolProgramID,
		"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"executable": false,
		"rentEpoch":  0,
	}
}

func (f *fakeChain) serve(t *testing.T) *rpc.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		f.mu.Lock()
		f.calls[req.Method]++
		var result any
		switch req.Method {
		case "getAccountInfo":
			var key string
			_ = json.Unmarshal(req.Params[0], &key)
			result = map[string]any{"context": map[string]any{"slot": 1}, "value": f.account(key)}
		case "getMultipleAccounts":
			var keys []string
			_ = json.Unmarshal(req.Params[0], &keys)
			vals := make([]any, len(keys))
			for i, k := range keys {
				vals[i] = f.account(k)
			}
			result = map[string]any{"context": map[string]any{"slot": 1}, "value": vals}
		case "getTokenAccountBalance":
			var key string
			_ = json.Unmarshal(req.Params[0], &key)
			amount := "0"
			if data, ok := f.accounts[key]; ok {
				amount = string(data)
			}
			result = map[string]any{"context": map[string]any{"slot": 1}, "value": map[string]any{"amount": amount, "decimals": 6}}
		case "getLatestBlockhash":
			result = map[string]any{"context": map[string]any{"slot": 1}, "value": map[string]any{
				"blockhash":            solana.Hash{3}.String(),
				"lastValidBlockHeight": 100,
			}}
		}
		f.mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": result})
	}))
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return rpc.NewClient(rpc.ClientConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: logger})
}

func (f *fakeChain) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}
