package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/models"
)

const swapsTable = "wallet_swaps"

const createSwapsTable = `
CREATE TABLE IF NOT EXISTS wallet_swaps (
	signature    String,
	execution_id String,
	timestamp    DateTime64(3, 'UTC'),
	wallet       String,
	network      LowCardinality(String),
	backend      LowCardinality(String),
	pair         String,
	token_in     String,
	token_out    String,
	amount_in    Float64,
	amount_out   Float64,
	price        Float64,
	pool         String
) ENGINE = MergeTree
ORDER BY (wallet, timestamp)`

// chConn is the part of clickhouse driver.Conn the store uses.
type chConn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

// ClickHouseStore is the durable log of executed swaps.
type ClickHouseStore struct {
	conn   chConn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("clickhouse addr is required")
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	store := newClickHouseStore(conn, cfg.Logger)
	store.logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")
	return store, nil
}

func newClickHouseStore(conn chConn, logger *logrus.Logger) *ClickHouseStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &ClickHouseStore{conn: conn, logger: logger}
}

// EnsureSchema creates the swaps table when missing.
func (c *ClickHouseStore) EnsureSchema(ctx context.Context) error {
	if err := c.conn.Exec(ctx, createSwapsTable); err != nil {
		return fmt.Errorf("create %s: %w", swapsTable, err)
	}
	return nil
}

func (c *ClickHouseStore) InsertSwap(ctx context.Context, swap *models.SwapEvent) error {
	query := `
		INSERT INTO wallet_swaps (
			signature, execution_id, timestamp, wallet, network, backend, pair,
			token_in, token_out, amount_in, amount_out, price, pool
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		swap.Signature,
		swap.ExecutionID,
		swap.Timestamp.UTC(),
		swap.Wallet,
		swap.Network,
		swap.Backend,
		swap.Pair,
		swap.TokenIn,
		swap.TokenOut,
		swap.AmountIn,
		swap.AmountOut,
		swap.Price,
		swap.Pool,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}
	return nil
}

type swapRow struct {
	Signature   string    `ch:"signature"`
	ExecutionID string    `ch:"execution_id"`
	Timestamp   time.Time `ch:"timestamp"`
	Wallet      string    `ch:"wallet"`
	Network     string    `ch:"network"`
	Backend     string    `ch:"backend"`
	Pair        string    `ch:"pair"`
	TokenIn     string    `ch:"token_in"`
	TokenOut    string    `ch:"token_out"`
	AmountIn    float64   `ch:"amount_in"`
	AmountOut   float64   `ch:"amount_out"`
	Price       float64   `ch:"price"`
	Pool        string    `ch:"pool"`
}

// RecentSwaps returns the newest swaps, for one wallet when wallet is set.
func (c *ClickHouseStore) RecentSwaps(ctx context.Context, wallet string, limit int) ([]*models.SwapEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT signature, execution_id, timestamp, wallet, network, backend, pair, " +
		"token_in, token_out, amount_in, amount_out, price, pool FROM wallet_swaps"
	args := []any{}
	if wallet != "" {
		query += " WHERE wallet = ?"
		args = append(args, wallet)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	var rows []swapRow
	if err := c.conn.Select(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query recent swaps: %w", err)
	}

	out := make([]*models.SwapEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.SwapEvent{
			Signature:   r.Signature,
			ExecutionID: r.ExecutionID,
			Timestamp:   r.Timestamp,
			Wallet:      r.Wallet,
			Network:     r.Network,
			Backend:     r.Backend,
			Pair:        r.Pair,
			TokenIn:     r.TokenIn,
			TokenOut:    r.TokenOut,
			AmountIn:    r.AmountIn,
			AmountOut:   r.AmountOut,
			Price:       r.Price,
			Pool:        r.Pool,
		})
	}
	return out, nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
