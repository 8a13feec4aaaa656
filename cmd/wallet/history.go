package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/constants"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

var (
	historyLimit    int
	historyDetailed bool
	historyAddress  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context(), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()
		owner, err := resolveOwner(a, historyAddress)
		if err != nil {
			return err
		}

		if !historyDetailed {
			sigs, err := a.Wallet.History(cmd.Context(), owner, historyLimit)
			if err != nil {
				return err
			}
			for _, s := range sigs {
				status := green("ok")
				if s.Err != nil {
					status = red("failed")
				}
				fmt.Printf("%s  %-7s %s\n", blockTime(s.BlockTime), status, s.Signature)
			}
			return nil
		}

		items, err := a.Wallet.DetailedHistory(cmd.Context(), owner, historyLimit)
		if err != nil {
			return err
		}
		for _, tx := range items {
			status := green(string(tx.Status))
			if tx.Status == wallet.StatusFailed {
				status = red(string(tx.Status))
			}
			fmt.Printf("%s  %-9s %-8s %12.6f SOL  %s\n", blockTime(tx.Timestamp), status, tx.Type, tx.Amount, tx.Signature)
			if tx.Counterparty != "" {
				fmt.Printf("    counterparty %s\n", tx.Counterparty)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", constants.DefaultHistoryLimit, "number of transactions")
	historyCmd.Flags().BoolVarP(&historyDetailed, "detailed", "d", false, "fetch and parse each transaction")
	historyCmd.Flags().StringVarP(&historyAddress, "address", "a", "", "address to inspect (defaults to the configured wallet)")
}

func blockTime(ts *int64) string {
	if ts == nil {
		return "pending            "
	}
	return time.Unix(*ts, 0).Format("2006-01-02 15:04:05")
}
