package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/storage"
)

var (
	_ storage.SwapCache = (*RedisCache)(nil)
	_ storage.SwapStore = (*ClickHouseStore)(nil)
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Logger   *logrus.Logger
}

// RedisCache keeps the recent-swaps list and fans swap events out over
// Pub/Sub.
type RedisCache struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisCache connects and pings. It fails if Redis is unreachable.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisCacheFromClient(client, cfg.Logger), nil
}

func NewRedisCacheFromClient(client *redis.Client, logger *logrus.Logger) *RedisCache {
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{client: client, logger: logger}
}

// Client exposes the underlying connection so the flag store can share it.
func (r *RedisCache) Client() *redis.Client { return r.client }

// AddRecentSwap pushes swap onto the recent list and trims it to
// MaxRecentSwaps entries.
func (r *RedisCache) AddRecentSwap(ctx context.Context, swap *models.SwapEvent) error {
	data, err := json.Marshal(swap)
	if err != nil {
		return fmt.Errorf("marshal swap: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentSwaps, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentSwaps, 0, constants.MaxRecentSwaps-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add recent swap: %w", err)
	}
	return nil
}

// GetRecentSwaps returns up to limit swaps, newest first. Entries that no
// longer decode are skipped.
func (r *RedisCache) GetRecentSwaps(ctx context.Context, limit int64) ([]*models.SwapEvent, error) {
	if limit <= 0 || limit > constants.MaxRecentSwaps {
		limit = constants.MaxRecentSwaps
	}
	vals, err := r.client.LRange(ctx, constants.RedisKeyRecentSwaps, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get recent swaps: %w", err)
	}

	out := make([]*models.SwapEvent, 0, len(vals))
	for _, v := range vals {
		var swap models.SwapEvent
		if err := json.Unmarshal([]byte(v), &swap); err != nil {
			r.logger.WithError(err).Warn("skipping undecodable swap record")
			continue
		}
		out = append(out, &swap)
	}
	return out, nil
}

// Channels returns every channel a swap is published on.
func Channels(swap *models.SwapEvent) []string {
	channels := []string{constants.PubSubChannelSwaps}
	if swap.Wallet != "" {
		channels = append(channels, constants.PubSubWalletPrefix+swap.Wallet)
	}
	if swap.Backend != "" {
		channels = append(channels, constants.PubSubBackendPrefix+swap.Backend)
	}
	return channels
}

// PublishSwap publishes swap to all of its channels in one pipeline.
func (r *RedisCache) PublishSwap(ctx context.Context, swap *models.SwapEvent) error {
	data, err := json.Marshal(swap)
	if err != nil {
		return fmt.Errorf("marshal swap: %w", err)
	}

	pipe := r.client.Pipeline()
	for _, channel := range Channels(swap) {
		pipe.Publish(ctx, channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish swap: %w", err)
	}
	return nil
}

// SubscribeSwaps streams decoded events from channel until ctx is done.
// The subscription is confirmed before it returns.
func (r *RedisCache) SubscribeSwaps(ctx context.Context, channel string) (<-chan *models.SwapEvent, error) {
	if channel == "" {
		channel = constants.PubSubChannelSwaps
	}
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan *models.SwapEvent, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var swap models.SwapEvent
				if err := json.Unmarshal([]byte(msg.Payload), &swap); err != nil {
					r.logger.WithFields(logrus.Fields{
						"channel": msg.Channel,
						"error":   err,
					}).Warn("dropping undecodable swap event")
					continue
				}
				select {
				case out <- &swap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	r.logger.WithField("channel", channel).Info("subscribed to swap events")
	return out, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
