package jupiter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_SendsQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "So11111111111111111111111111111111111111112", q.Get("inputMint"))
		assert.Equal(t, "100000000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		assert.Equal(t, "ExactIn", q.Get("swapMode"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte(`{"inputMint":"So11111111111111111111111111111111111111112","outputMint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","inAmount":"100000000","outAmount":"48000000","otherAmountThreshold":"47760000","swapMode":"ExactIn","slippageBps":50,"priceImpactPct":"0.0012","routePlan":[{"swapInfo":{"ammKey":"k","label":"Whirlpool","inputMint":"a","outputMint":"b","inAmount":"1","outAmount":"2"},"percent":100,"bps":10000}]}`))
	}))
	defer srv.Close()

	slip := uint16(50)
	c := NewClient(srv.URL+"/", "secret")
	out, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:   "So11111111111111111111111111111111111111112",
		OutputMint:  "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:      "100000000",
		SlippageBps: &slip,
		SwapMode:    "ExactIn",
	})
	require.NoError(t, err)
	assert.Equal(t, "48000000", out.OutAmount)
	assert.Equal(t, "0.0012", out.PriceImpactPct)
	require.Len(t, out.RoutePlan, 1)
	assert.Equal(t, "Whirlpool", out.RoutePlan[0].SwapInfo.Label)
}

func TestQuote_Validation(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	_, err := c.Quote(context.Background(), QuoteRequest{OutputMint: "b", Amount: "1"})
	assert.ErrorContains(t, err, "inputMint")
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: "a", Amount: "1"})
	assert.ErrorContains(t, err, "outputMint")
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: "a", OutputMint: "b"})
	assert.ErrorContains(t, err, "amount")
}

func TestQuote_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Could not find any route"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Quote(context.Background(), QuoteRequest{InputMint: "a", OutputMint: "b", Amount: "1"})
	require.Error(t, err)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "Could not find any route")
}

func testTxBase64(t *testing.T, payer solana.PublicKey) string {
	t.Helper()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(solana.MemoProgramID, solana.AccountMetaSlice{
			solana.Meta(payer).SIGNER().WRITE(),
		}, []byte("swap"))},
		solana.Hash{7},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)
	// unsigned, with zeroed signature slots like the real API
	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(raw)
}

func TestSwap_PostsQuoteAndDecodesTransaction(t *testing.T) {
	user := solana.NewWallet().PublicKey()
	encoded := testTxBase64(t, user)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/swap", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("content-type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, user.String(), body["userPublicKey"])
		assert.Equal(t, true, body["wrapAndUnwrapSol"])
		assert.Equal(t, true, body["dynamicComputeUnitLimit"])
		assert.Equal(t, "auto", body["prioritizationFeeLamports"])
		quote, ok := body["quoteResponse"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "48000000", quote["outAmount"])

		_ = json.NewEncoder(w).Encode(SwapResponse{SwapTransaction: encoded, LastValidBlockHeight: 99})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.Swap(context.Background(), NewSwapRequest(&QuoteResponse{OutAmount: "48000000"}, user.String()))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), res.LastValidBlockHeight)

	tx, err := DecodeTransaction(res.SwapTransaction)
	require.NoError(t, err)
	assert.Equal(t, user, tx.Message.AccountKeys[0])
}

func TestSwap_EmptyTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"swapTransaction":""}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Swap(context.Background(), NewSwapRequest(&QuoteResponse{}, "user"))
	assert.ErrorContains(t, err, "empty swapTransaction")
}

func TestDecodeTransaction_Garbage(t *testing.T) {
	_, err := DecodeTransaction("!!not-base64")
	assert.Error(t, err)
	_, err = DecodeTransaction(base64.StdEncoding.EncodeToString([]byte{1}))
	assert.Error(t, err)
}

func TestNewClient_DefaultBase(t *testing.T) {
	assert.Equal(t, DefaultBaseURL, NewClient("  ", "").BaseURL)
}
