// Package breakdown runs fetch, tag resolution and aggregation for one
// account and splits the result into reportable strategies.
package breakdown

import (
	"context"

	"strategy-pnl/internal/fetcher"
	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/pnl"
	"strategy-pnl/internal/strategy"
	"strategy-pnl/internal/tagging"
	"strategy-pnl/internal/types"
)

type Service struct {
	fetcher           *fetcher.Fetcher
	resolver          *tagging.Resolver
	includeAccountPnl bool
}

var _ interfaces.Breakdowner = (*Service)(nil)

type Option func(*Service)

// WithAccountPnl adds the account level P&L to every breakdown.
func WithAccountPnl(on bool) Option {
	return func(s *Service) { s.includeAccountPnl = on }
}

func WithResolver(r *tagging.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

func NewService(f *fetcher.Fetcher, opts ...Option) *Service {
	s := &Service{fetcher: f, resolver: tagging.NewResolver()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run never fails outright: a fetch failure is reported in Error with no
// strategies, and identity or position feed failures only drop those parts.
func (s *Service) Run(ctx context.Context, creds types.Credentials, tradeDate string) types.AccountBreakdown {
	out := types.AccountBreakdown{
		TradeDate:  tradeDate,
		Label:      creds.Label,
		Strategies: []types.StrategyPnlResult{},
	}

	identity, err := s.fetcher.Identity(ctx, creds)
	if err != nil {
		logger.Warn(ctx, "Account identity unavailable", "account", creds.Label, "error", err)
	} else {
		out.Account = identity
	}

	res, err := s.fetcher.Fetch(ctx, creds, tradeDate)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	resolved, attributions := s.resolver.ResolveWithReport(ctx, res.Trades, res.Tags)
	out.Trades = resolved
	out.Attributions = attributions

	for _, r := range pnl.Aggregate(resolved) {
		if strategy.Reportable(r.StrategyCode) {
			out.Strategies = append(out.Strategies, r)
		} else {
			out.Unreported = append(out.Unreported, r)
		}
	}
	for _, r := range out.Unreported {
		logger.Info(ctx, "Untagged fills excluded from strategy report",
			"account", creds.Label, "pnl", r.RealizedPnl.StringFixed(2), "trade_count", r.TradeCount)
	}

	if s.includeAccountPnl {
		positions, err := s.fetcher.DayPositions(ctx, creds)
		if err != nil {
			logger.Warn(ctx, "Day positions unavailable, matching fills instead", "account", creds.Label, "error", err)
			positions = nil
		}
		ap := pnl.AccountPnl(positions, resolved, tradeDate == s.fetcher.Today())
		out.AccountPnl = &ap
	}
	return out
}
