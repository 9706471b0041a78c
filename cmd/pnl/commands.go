package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"strategy-pnl/internal/broker/brokerobs"
	"strategy-pnl/internal/broker/snapshot"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/pnl"
	"strategy-pnl/internal/tagging"
	"strategy-pnl/internal/types"
)

var noPersist bool

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Compute per-strategy realized P&L",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if noPersist {
			creds, err := a.accounts()
			if err != nil {
				return err
			}
			return printJSON(a.batch.RunAll(ctx, creds, a.date()))
		}
		results, err := a.runDay(ctx, a.date())
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "Show one account's fills with resolved tags and per-instrument books",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		creds, err := a.accounts()
		if err != nil {
			return err
		}
		if len(creds) != 1 {
			return fmt.Errorf("trades needs --account when more than one account is configured")
		}

		res, err := a.fetcher.Fetch(ctx, creds[0], a.date())
		if err != nil {
			return err
		}
		resolved, attributions := tagging.NewResolver().ResolveWithReport(ctx, res.Trades, res.Tags)
		return printJSON(map[string]any{
			"trades":       resolved,
			"attributions": attributions,
			"strategies":   pnl.Breakdown(resolved),
			"skipped":      res.Skipped,
		})
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Save today's raw broker payloads for replay with data_source: SNAPSHOT",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		creds, err := a.accounts()
		if err != nil {
			return err
		}
		factory := brokerobs.WrapFactory(kiteFactory(a.cfg))
		for _, c := range creds {
			if c.APIKey == "" || c.AccessToken == "" {
				logger.Warn(ctx, "Skipping account without credentials", "account", c.Label)
				continue
			}
			p, err := snapshot.Capture(ctx, factory(c), time.Now())
			if err != nil {
				return fmt.Errorf("capture %s: %w", c.Label, err)
			}
			path := snapshot.PathFor(a.cfg.SnapshotDir, c.Label)
			if err := snapshot.Save(path, p); err != nil {
				return err
			}
			logger.Info(ctx, "Snapshot saved", "account", c.Label, "path", path, "trades", len(p.Trades), "orders", len(p.Orders))
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted strategy results for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		rows, err := a.results.ListDay(ctx, a.date())
		if err != nil {
			return err
		}
		out := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			if accountName != "" && r.Account != accountName {
				continue
			}
			out = append(out, map[string]any{
				"account":      r.Account,
				"strategyCode": r.StrategyCode,
				"pnl":          r.Pnl.InexactFloat64(),
				"tradeCount":   r.TradeCount,
				"runId":        r.RunID,
			})
		}
		return printJSON(out)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the breakdown on the configured cron schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		job := func() {
			date := a.fetcher.Today()
			if _, err := a.runDay(ctx, date); err != nil {
				logger.ErrorWithErr(ctx, "Scheduled breakdown failed", err, "trade_date", date)
			}
		}

		c := cron.New(cron.WithSeconds(), cron.WithLocation(types.IST))
		if _, err := c.AddFunc(a.cfg.Schedule, job); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", a.cfg.Schedule, err)
		}
		c.Start()
		logger.Info(ctx, "Scheduler started", "schedule", a.cfg.Schedule)

		// Started after the close without today's report: catch up now
		if ok, _ := a.report.ShouldRunNow(); ok {
			job()
		}

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigc:
		case <-ctx.Done():
		}
		logger.Info(ctx, "Shutting down...")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	breakdownCmd.Flags().BoolVar(&noPersist, "no-persist", false, "print results without writing the database, audit log or report")
}
