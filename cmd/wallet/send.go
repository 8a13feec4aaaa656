package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/briandowns/spinner"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

var sendCmd = &cobra.Command{
	Use:   "send <recipient> <amount>",
	Short: "Send SOL to another address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil || amount <= 0 {
			return fmt.Errorf("invalid amount %q", args[1])
		}

		a, err := loadApp(cmd.Context(), app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()
		keys, err := a.RequireSigner()
		if err != nil {
			return err
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = fmt.Sprintf(" Sending %g SOL to %s...", amount, args[0])
		s.Start()
		sig, err := a.Wallet.SendSOL(cmd.Context(), keys, args[0], amount)
		s.Stop()

		if err != nil {
			var low *wallet.InsufficientBalanceError
			if errors.As(err, &low) {
				fmt.Printf("\n%s %v\n\n", red("✗"), low)
				return err
			}
			fmt.Printf("\n%s %v\n", red("✗"), err)
			if sig != (solana.Signature{}) {
				fmt.Printf("  Signature: %s\n", sig)
			}
			fmt.Println()
			return err
		}
		fmt.Printf("\n%s Sent %g SOL\n  Signature: %s\n\n", green("✓"), amount, cyan(sig.String()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
