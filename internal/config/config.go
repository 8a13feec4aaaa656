package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
)

type Config struct {
	// RPC settings
	RPCUrl string

	// Wallet used by the API's /v1/swap and by the CLI when no key is given
	WalletPrivateKey string

	// Swap backends
	JupiterBaseURL     string
	JupiterAPIKey      string
	OrcaPoolConfigPath string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API server
	APIAddr string
	APIKey  string
	DevMode bool

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	ConfirmTimeout      time.Duration
	BalancePollInterval time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:           getEnv("SOLANA_RPC_URL", constants.DefaultRPCURL),
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),

		// Backends
		JupiterBaseURL:     getEnv("JUPITER_BASE_URL", constants.DefaultJupiterBaseURL),
		JupiterAPIKey:      getEnv("JUPITER_API_KEY", ""),
		OrcaPoolConfigPath: getEnv("ORCA_POOL_CONFIG_PATH", ""),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse, disabled when the address is empty
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),

		ConfirmTimeout:      getDurationEnv("CONFIRM_TIMEOUT", constants.ConfirmTimeout),
		BalancePollInterval: getDurationEnv("BALANCE_POLL_INTERVAL", constants.BalancePollInterval),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks the fields every binary depends on.
func (c *Config) Validate() error {
	var errs []error
	if !strings.HasPrefix(c.RPCUrl, "http://") && !strings.HasPrefix(c.RPCUrl, "https://") {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL must be an http(s) URL, got %q", c.RPCUrl))
	}
	if c.JupiterBaseURL == "" {
		errs = append(errs, errors.New("JUPITER_BASE_URL is required"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("CONFIRM_TIMEOUT must be positive"))
	}
	if c.BalancePollInterval <= 0 {
		errs = append(errs, errors.New("BALANCE_POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
