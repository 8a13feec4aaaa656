package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/network"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

var (
	balanceAddress string
	balanceWatch   bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show SOL and USDC balances",
	Long: `Show the SOL and USDC balances of --address, or of the configured wallet.
With --watch the balances are refreshed every BALANCE_POLL_INTERVAL until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		owner, err := resolveOwner(a, balanceAddress)
		if err != nil {
			return err
		}
		stable := network.StableMint(a.Network)

		if !balanceWatch {
			b, err := a.Wallet.Snapshot(ctx, owner, stable)
			if err != nil {
				return err
			}
			printBalances(a.Network, owner, b)
			return nil
		}

		poller := wallet.NewBalancePoller(wallet.BalancePollerConfig{
			Wallet:     a.Wallet,
			Owner:      owner,
			StableMint: stable,
			Interval:   a.Config.BalancePollInterval,
			Logger:     a.Logger,
		})
		fmt.Printf("Watching %s every %s (Ctrl+C to stop)\n", cyan(owner.String()), a.Config.BalancePollInterval)
		err = poller.Start(ctx, func(_ context.Context, b wallet.Balances) {
			fmt.Printf("[%s] SOL %.4f  USDC %.2f\n", time.Now().Format("15:04:05"), b.SOL, b.USDC)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAddress, "address", "a", "", "address to inspect (defaults to the configured wallet)")
	balanceCmd.Flags().BoolVarP(&balanceWatch, "watch", "w", false, "keep polling balances")
}

func resolveOwner(a *app.App, address string) (solana.PublicKey, error) {
	if address != "" {
		pk, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid address: %w", err)
		}
		return pk, nil
	}
	keys, err := a.RequireSigner()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return keys.PublicKey, nil
}

func printBalances(n network.Network, owner solana.PublicKey, b wallet.Balances) {
	fmt.Printf("\nWallet:  %s (%s)\n", cyan(owner.String()), n)
	fmt.Printf("  SOL:   %.4f\n", b.SOL)
	fmt.Printf("  USDC:  %.2f\n\n", b.USDC)
}
