package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"strategy-pnl/internal/logger"
)

var (
	cfgFile     string
	tradeDate   string
	accountName string
)

var rootCmd = &cobra.Command{
	Use:   "pnl",
	Short: "Per-strategy realized P&L for Kite accounts",
	Long: `Per-strategy realized P&L for Kite accounts.

Commands:
    breakdown   compute, persist and report today's strategy P&L
    trades      show one account's fills with resolved tags
    capture     save raw broker payloads for offline replay
    history     list persisted results for a day
    schedule    run the breakdown after every market close
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeSystem()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = logger.Shutdown(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&tradeDate, "date", "", "trading day as YYYY-MM-DD (default today, IST)")
	rootCmd.PersistentFlags().StringVar(&accountName, "account", "", "limit to one configured account")

	rootCmd.AddCommand(breakdownCmd, tradesCmd, captureCmd, historyCmd, scheduleCmd)
}

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
