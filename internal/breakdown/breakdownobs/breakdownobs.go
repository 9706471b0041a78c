package breakdownobs

import (
	"context"
	"errors"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/types"
)

type observableBreakdowner struct {
	svc interfaces.Breakdowner
}

var _ interfaces.Breakdowner = (*observableBreakdowner)(nil)

// Wrap wraps a Breakdowner with logging and tracing
func Wrap(svc interfaces.Breakdowner) interfaces.Breakdowner {
	return &observableBreakdowner{svc: svc}
}

func (ob *observableBreakdowner) Run(ctx context.Context, creds types.Credentials, tradeDate string) types.AccountBreakdown {
	timer := logger.StartOperation(ctx, "breakdown.Run", "account", creds.Label, "trade_date", tradeDate)
	ctx = timer.GetContext()

	logger.InfoSkip(ctx, 1, "Starting strategy breakdown", "account", creds.Label, "trade_date", tradeDate)

	res := ob.svc.Run(ctx, creds, tradeDate)
	if res.Failed() {
		timer.EndWithError(errors.New(res.Error), "account", creds.Label)
		return res
	}

	logger.InfoSkip(ctx, 1, "Strategy breakdown completed",
		"account", creds.Label,
		"strategies", len(res.Strategies),
		"unreported", len(res.Unreported),
		"trades", len(res.Trades),
	)
	timer.End("strategies", len(res.Strategies))
	return res
}
