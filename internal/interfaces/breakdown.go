package interfaces

import (
	"context"

	"strategy-pnl/internal/types"
)

// Breakdowner computes the per-strategy P&L of one account for one day.
type Breakdowner interface {
	Run(ctx context.Context, creds types.Credentials, tradeDate string) types.AccountBreakdown
}
