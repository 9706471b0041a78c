package eodobs

import (
	"context"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/trace"
	"strategy-pnl/internal/types"
)

type observableReportWriter struct {
	writer interfaces.ReportWriter
}

var _ interfaces.ReportWriter = (*observableReportWriter)(nil)

func Wrap(writer interfaces.ReportWriter) interfaces.ReportWriter {
	return &observableReportWriter{
		writer: writer,
	}
}

func (ow *observableReportWriter) WriteDay(tradeDate string, breakdowns []types.AccountBreakdown) (string, error) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "eod.WriteDay")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting EOD report generation",
		"date", tradeDate,
		"accounts", len(breakdowns),
	)

	csvPath, err := ow.writer.WriteDay(tradeDate, breakdowns)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "EOD report generation failed", err,
			"date", tradeDate,
		)
		return "", err
	}

	if csvPath == "" {
		logger.InfoSkip(ctx, 1, "No accounts to report",
			"date", tradeDate,
		)
		return "", nil
	}

	logger.InfoSkip(ctx, 1, "EOD report generated successfully",
		"date", tradeDate,
		"csv_path", csvPath,
	)

	return csvPath, nil
}

func (ow *observableReportWriter) ShouldRunNow() (bool, string) {
	ctx := context.Background()
	ctx, span := trace.StartSpan(ctx, "eod.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := ow.writer.ShouldRunNow()

	logger.DebugSkip(ctx, 1, "EOD check completed",
		"should_run", shouldRun,
		"csv_path", csvPath,
	)

	return shouldRun, csvPath
}
