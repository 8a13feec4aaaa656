package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
)

var (
	rpcURL   string
	logLevel string

	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Solana wallet with SOL/USDC swaps",
	Long: `wallet manages a Solana keypair, sends SOL and swaps tokens.

Swaps route through an Orca Whirlpool on devnet and through Jupiter on
every other cluster, based on SOLANA_RPC_URL.

Examples:
  wallet keygen --out wallet.json
  wallet balance
  wallet quote 0.5 SOL to USDC
  wallet swap 0.5 SOL to USDC --yes`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "Solana RPC URL (overrides SOLANA_RPC_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

// loadEnv reads .env from the working directory, then from the module root.
func loadEnv() {
	_ = godotenv.Load()
	_, filename, _, _ := runtime.Caller(0)
	_ = godotenv.Load(filepath.Join(filepath.Dir(filename), "../..", ".env"))
}

func loadConfig() (*config.Config, error) {
	loadEnv()
	cfg := config.Load()
	if rpcURL != "" {
		cfg.RPCUrl = rpcURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	} else if os.Getenv("LOG_LEVEL") == "" {
		// keep engine chatter out of the terminal unless asked for
		cfg.LogLevel = "warn"
	}
	return cfg, cfg.Validate()
}

func loadApp(ctx context.Context, opts app.Options) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.NewLogger(cfg.LogLevel), opts)
}

// parsePair accepts "<amount> <in> to <out>" or "<amount> <in> <out>".
func parsePair(n network.Network, args []string) (float64, solana.PublicKey, solana.PublicKey, error) {
	var zero solana.PublicKey
	if len(args) == 4 && strings.EqualFold(args[2], "to") {
		args = []string{args[0], args[1], args[3]}
	}
	if len(args) != 3 {
		return 0, zero, zero, fmt.Errorf("expected <amount> <input-token> to <output-token>")
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, zero, zero, fmt.Errorf("invalid amount %q", args[0])
	}
	in, err := network.ResolveToken(n, args[1])
	if err != nil {
		return 0, zero, zero, fmt.Errorf("unknown input token %q", args[1])
	}
	out, err := network.ResolveToken(n, args[2])
	if err != nil {
		return 0, zero, zero, fmt.Errorf("unknown output token %q", args[2])
	}
	return amount, in, out, nil
}

func printQuote(q *swapengine.Quote) {
	fmt.Printf("  Backend:        %s\n", q.Backend)
	fmt.Printf("  You pay:        %s\n", formatAmount(q.InAmount, q.InDecimals, q.InputMint))
	fmt.Printf("  You receive:    ~%s %s\n", q.EstimatedOut(), symbol(q.OutputMint))
	fmt.Printf("  Minimum out:    %s\n", formatAmount(q.MinOutAmount, q.OutDecimals, q.OutputMint))
	fmt.Printf("  Slippage:       %.2f%%\n", float64(q.SlippageBps)/100)
	if q.PriceImpactPct > 0 {
		fmt.Printf("  Price impact:   %.4f%%\n", q.PriceImpactPct*100)
	}
	for i, step := range q.RouteSteps {
		fmt.Printf("  Route %d:        %s (%s)\n", i+1, step.Label, step.PoolID)
	}
}
