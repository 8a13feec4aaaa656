package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/solana-wallet-swap/internal/app"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/preview"
	"github.com/aman-zulfiqar/solana-wallet-swap/internal/swapengine"
)

var quoteInteractive bool

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <input-token> to <output-token>",
	Short: "Price a swap without executing it",
	Long: `Price a swap without executing it. Tokens are SOL, USDC or a mint address.

With --interactive, amounts are read from stdin one per line and a preview
is printed once typing settles; stale previews are dropped.

Examples:
  wallet quote 0.5 SOL to USDC
  wallet quote 0 SOL to USDC --interactive`,
	Args: cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer a.Close()

		amount, in, out, err := parsePair(a.Network, args)
		if err != nil {
			return err
		}
		if quoteInteractive {
			return interactiveQuotes(ctx, a.Engine, swapengine.QuoteRequest{InputMint: in, OutputMint: out})
		}

		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Fetching quote..."
		s.Start()
		q, err := a.Engine.GetQuote(ctx, swapengine.QuoteRequest{AmountHuman: amount, InputMint: in, OutputMint: out})
		s.Stop()
		if err != nil {
			fmt.Printf("\n%s %v\n\n", red("✗"), err)
			return err
		}
		fmt.Printf("\nQuote (%s):\n", a.Network)
		printQuote(q)
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().BoolVarP(&quoteInteractive, "interactive", "i", false, "read amounts from stdin and preview quotes")
}

func interactiveQuotes(ctx context.Context, engine *swapengine.Engine, base swapengine.QuoteRequest) error {
	d := preview.New(ctx, preview.Config[*swapengine.Quote]{
		Fetch: func(ctx context.Context, amount float64) (*swapengine.Quote, error) {
			req := base
			req.AmountHuman = amount
			return engine.GetQuote(ctx, req)
		},
		Deliver: func(r preview.Result[*swapengine.Quote]) {
			if r.Err != nil {
				fmt.Printf("  %g -> %s\n", r.Amount, red(r.Err.Error()))
				return
			}
			fmt.Printf("  %g -> ~%s %s (min %s)\n", r.Amount, r.Value.EstimatedOut(), symbol(r.Value.OutputMint),
				formatAmount(r.Value.MinOutAmount, r.Value.OutDecimals, r.Value.OutputMint))
		},
	})
	defer d.Stop()

	fmt.Printf("Enter %s amounts, one per line (Ctrl+D to finish):\n", symbol(base.InputMint))
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// let the last pending preview land
				time.Sleep(time.Second)
				return nil
			}
			amount, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
			if err != nil {
				fmt.Println(yellow("  not a number"))
				continue
			}
			d.Request(amount)
		}
	}
}
