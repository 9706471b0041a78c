package main

import (
	"context"
	"fmt"
	"path/filepath"

	"strategy-pnl/internal/breakdown"
	"strategy-pnl/internal/breakdown/breakdownobs"
	"strategy-pnl/internal/broker/brokerobs"
	"strategy-pnl/internal/broker/snapshot"
	"strategy-pnl/internal/broker/zerodha"
	"strategy-pnl/internal/eod"
	"strategy-pnl/internal/eod/eodobs"
	"strategy-pnl/internal/fetcher"
	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/pnlstore"
	"strategy-pnl/internal/store"
	"strategy-pnl/internal/tradelog"
	"strategy-pnl/internal/types"
)

// app bundles everything one process needs.
type app struct {
	cfg     *store.Config
	fetcher *fetcher.Fetcher
	service interfaces.Breakdowner
	batch   *breakdown.Batch
	results *pnlstore.Store
	report  interfaces.ReportWriter
	audit   *tradelog.Log
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig(cfgFile)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeFactory picks the broker source and wraps it with observability
func initializeFactory(ctx context.Context, cfg *store.Config) interfaces.BrokerFactory {
	var factory interfaces.BrokerFactory
	if cfg.DataSource == store.DataSourceSnapshot {
		logger.Info(ctx, "Replaying captured broker snapshots", "dir", cfg.SnapshotDir)
		factory = snapshot.NewFactory(cfg.SnapshotDir)
	} else {
		logger.Info(ctx, "Using LIVE Kite Connect data", "requests_per_second", cfg.Broker.RequestsPerSecond)
		factory = kiteFactory(cfg)
	}
	return brokerobs.WrapFactory(factory)
}

func kiteFactory(cfg *store.Config) interfaces.BrokerFactory {
	return zerodha.NewFactory(zerodha.FactoryOptions{
		BaseURI:           cfg.Broker.BaseURI,
		Timeout:           cfg.Broker.Timeout,
		RequestsPerSecond: cfg.Broker.RequestsPerSecond,
	})
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	f := fetcher.New(initializeFactory(ctx, cfg))
	svc := breakdownobs.Wrap(breakdown.NewService(f, breakdown.WithAccountPnl(cfg.IncludeAccountPnl)))

	results, err := pnlstore.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		fetcher: f,
		service: svc,
		batch:   breakdown.NewBatch(svc, cfg.Concurrency),
		results: results,
		report:  eodobs.Wrap(eod.NewWriter(cfg.Report.Dir)),
		audit:   tradelog.New(filepath.Join(cfg.Report.Dir, "trades")),
	}, nil
}

func (a *app) Close() error {
	return a.results.Close()
}

// accounts returns the credential sets selected by --account.
func (a *app) accounts() ([]types.Credentials, error) {
	if accountName == "" {
		return a.cfg.CredentialSets(), nil
	}
	acct, ok := a.cfg.Account(accountName)
	if !ok {
		return nil, fmt.Errorf("unknown account %q", accountName)
	}
	return []types.Credentials{acct.Credentials()}, nil
}

func (a *app) date() string {
	if tradeDate != "" {
		return tradeDate
	}
	return a.fetcher.Today()
}

// runDay computes every selected account, persists the successful ones and
// writes the audit trail and CSV report.
func (a *app) runDay(ctx context.Context, date string) ([]types.AccountBreakdown, error) {
	creds, err := a.accounts()
	if err != nil {
		return nil, err
	}

	runID := pnlstore.NewRunID()
	logger.Info(ctx, "Starting breakdown run", "run_id", runID, "trade_date", date, "accounts", len(creds))

	results := a.batch.RunAll(ctx, creds, date)
	for _, b := range results {
		if err := a.results.ReplaceDay(ctx, runID, b); err != nil {
			logger.ErrorWithErr(ctx, "Failed to persist breakdown", err, "account", b.Label)
		}
		if err := a.audit.AppendBreakdown(runID, b); err != nil {
			logger.Warn(ctx, "Failed to write audit trail", "account", b.Label, "error", err)
		}
	}

	if _, err := a.report.WriteDay(date, results); err != nil {
		logger.Warn(ctx, "Failed to write EOD report", "error", err)
	}
	if err := a.audit.CompressOlder(a.cfg.Report.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old audit files", "error", err)
	}
	return results, nil
}
