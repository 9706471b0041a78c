package interfaces

import (
	"context"

	"strategy-pnl/internal/types"
)

// ResultStore persists breakdown rows, replacing a day's rows wholesale.
type ResultStore interface {
	ReplaceDay(ctx context.Context, runID string, b types.AccountBreakdown) error
}

// ReportWriter renders a day's breakdowns to a file and returns its path.
type ReportWriter interface {
	WriteDay(tradeDate string, breakdowns []types.AccountBreakdown) (string, error)

	// ShouldRunNow reports whether today's report is due
	ShouldRunNow() (bool, string)
}
