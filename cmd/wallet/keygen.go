package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/wallet"
)

var keygenOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new keypair",
	Long: `Generate a new ed25519 keypair. With --out the export JSON is written to
that file (mode 0600); otherwise it is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := wallet.Generate()
		raw, err := wallet.Export(keys, time.Now())
		if err != nil {
			return err
		}

		fmt.Printf("\nAddress: %s\n", cyan(keys.Address()))
		if keygenOut == "" {
			fmt.Printf("\n%s\n", raw)
		} else {
			if err := os.WriteFile(keygenOut, append(raw, '\n'), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", keygenOut, err)
			}
			fmt.Printf("Saved to %s\n", keygenOut)
		}
		fmt.Printf("\n%s\n", yellow("Keep the private key safe. Set WALLET_PRIVATE_KEY to use this wallet."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVarP(&keygenOut, "out", "o", "", "write the export JSON to this file")
}
