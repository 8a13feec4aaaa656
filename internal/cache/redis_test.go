package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return NewRedisCacheFromClient(client, logger), mr
}

func testSwap(i int) *models.SwapEvent {
	return &models.SwapEvent{
		Signature: fmt.Sprintf("sig-%d", i),
		Timestamp: time.Unix(1_700_000_000+int64(i), 0).UTC(),
		Wallet:    "Wallet111",
		Network:   "devnet",
		Backend:   "orca",
		Pair:      "SOL-USDC",
		TokenIn:   "SOL",
		TokenOut:  "USDC",
		AmountIn:  0.5,
		AmountOut: 48,
		Price:     96,
		Pool:      "SOL/USDC Whirlpool",
	}
}

func TestRecentSwaps_NewestFirstAndTrimmed(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	for i := 0; i < constants.MaxRecentSwaps+5; i++ {
		require.NoError(t, c.AddRecentSwap(ctx, testSwap(i)))
	}

	list, err := mr.List(constants.RedisKeyRecentSwaps)
	require.NoError(t, err)
	assert.Len(t, list, constants.MaxRecentSwaps)

	got, err := c.GetRecentSwaps(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, fmt.Sprintf("sig-%d", constants.MaxRecentSwaps+4), got[0].Signature)
	assert.Equal(t, "SOL-USDC", got[0].Pair)
}

func TestGetRecentSwaps_SkipsGarbage(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.AddRecentSwap(ctx, testSwap(1)))
	_, err := mr.Lpush(constants.RedisKeyRecentSwaps, "{not json")
	require.NoError(t, err)

	got, err := c.GetRecentSwaps(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sig-1", got[0].Signature)
}

func TestChannels(t *testing.T) {
	assert.Equal(t, []string{
		"swaps:all",
		"swaps:wallet:Wallet111",
		"swaps:backend:orca",
	}, Channels(testSwap(0)))

	assert.Equal(t, []string{"swaps:all"}, Channels(&models.SwapEvent{}))
}

func TestPublishAndSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, _ := newTestCache(t)

	events, err := c.SubscribeSwaps(ctx, constants.PubSubWalletPrefix+"Wallet111")
	require.NoError(t, err)

	require.NoError(t, c.PublishSwap(ctx, testSwap(7)))

	select {
	case ev := <-events:
		require.NotNil(t, ev)
		assert.Equal(t, "sig-7", ev.Signature)
		assert.Equal(t, "orca", ev.Backend)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPing(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
