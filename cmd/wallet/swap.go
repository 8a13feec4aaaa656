package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
)

var swapYes bool

var stateLabels = map[swapengine.State]string{
	swapengine.StateQuoting:    "Fetching fresh quote...",
	swapengine.StateBuilding:   "Building transaction...",
	swapengine.StateSigning:    "Signing...",
	swapengine.StateSubmitting: "Submitting...",
	swapengine.StateConfirming: "Waiting for confirmation...",
}

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <input-token> to <output-token>",
	Short: "Swap tokens with the configured wallet",
	Long: `Swap tokens with the wallet in WALLET_PRIVATE_KEY. A preview quote is shown
first; the swap itself re-checks the balance and re-quotes before signing.

Examples:
  wallet swap 0.5 SOL to USDC
  wallet swap 10 USDC to SOL --yes`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		a, err := loadApp(ctx, app.Options{
			OnTransition: func(t swapengine.Transition) {
				if label, ok := stateLabels[t.To]; ok {
					s.Lock()
					s.Suffix = " " + label
					s.Unlock()
				}
			},
		})
		if err != nil {
			return err
		}
		defer a.Close()

		keys, err := a.RequireSigner()
		if err != nil {
			return err
		}
		amount, in, out, err := parsePair(a.Network, args)
		if err != nil {
			return err
		}

		s.Suffix = " Fetching quote..."
		s.Start()
		q, err := a.Engine.GetQuote(ctx, swapengine.QuoteRequest{AmountHuman: amount, InputMint: in, OutputMint: out})
		s.Stop()
		if err != nil {
			fmt.Printf("\n%s %v\n\n", red("✗"), err)
			return err
		}

		fmt.Printf("\nSwap from %s on %s:\n", cyan(keys.Address()), a.Network)
		printQuote(q)
		if !swapYes && !confirm("\nProceed with this swap? [y/N]: ") {
			fmt.Println("Cancelled.")
			return nil
		}

		s.Start()
		res := a.Engine.ExecuteSwap(ctx, swapengine.SwapRequest{
			Signer:      keys,
			AmountHuman: amount,
			InputMint:   in,
			OutputMint:  out,
		})
		s.Stop()

		if !res.Succeeded() {
			fmt.Printf("\n%s %s\n", red("✗"), res.ErrorMessage)
			if sig, ok := swapengine.IsExecutionError(res.Err); ok {
				fmt.Printf("  Signature: %s\n", sig)
			}
			fmt.Println()
			return fmt.Errorf("swap %s failed", res.ExecutionID)
		}

		fmt.Printf("\n%s Swap confirmed in %s\n", green("✓"), res.Duration.Round(time.Millisecond))
		if res.Quote != nil {
			fmt.Printf("  Received:  ~%s %s\n", res.Quote.EstimatedOut(), symbol(res.Quote.OutputMint))
		}
		fmt.Printf("  Signature: %s\n\n", cyan(res.Signature))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().BoolVarP(&swapYes, "yes", "y", false, "skip the confirmation prompt")
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
