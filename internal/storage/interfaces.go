package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
)

// SwapCache is the hot side of executed-swap records: a capped recent list
// in Redis plus pub/sub fan-out per wallet and backend.
type SwapCache interface {
	// AddRecentSwap adds a swap to the recent swaps list
	AddRecentSwap(ctx context.Context, swap *models.SwapEvent) error

	// GetRecentSwaps retrieves the most recent swaps
	GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapEvent, error)

	// PublishSwap publishes a swap event to the Pub/Sub channels
	PublishSwap(ctx context.Context, swap *models.SwapEvent) error

	// SubscribeSwaps subscribes to real-time swap events on channel
	SubscribeSwaps(ctx context.Context, channel string) (<-chan *models.SwapEvent, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// SwapStore is the durable, queryable side of executed-swap records.
type SwapStore interface {
	// InsertSwap inserts a swap event into the store
	InsertSwap(ctx context.Context, swap *models.SwapEvent) error

	// RecentSwaps returns the newest swaps, optionally for one wallet
	RecentSwaps(ctx context.Context, wallet string, limit int) ([]*models.SwapEvent, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}
