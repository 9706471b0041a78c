// Package eod writes the end-of-day strategy P&L report as CSV.
package eod

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/types"
)

var headers = []string{"account", "broker_client_id", "strategy_code", "trade_count", "realized_pnl", "note"}

type Writer struct {
	dir string
	now func() time.Time
}

var _ interfaces.ReportWriter = (*Writer)(nil)

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WriteDay writes one row per reported strategy, an ACCOUNT row when the
// account level figure is known, an ERROR row per failed account and a
// closing TOTAL row. Returns "" when there is nothing to report.
func (w *Writer) WriteDay(tradeDate string, breakdowns []types.AccountBreakdown) (string, error) {
	if len(breakdowns) == 0 {
		return "", nil
	}
	outPath := csvPath(w.dir, tradeDate)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	cw := csv.NewWriter(out)
	if err := cw.Write(headers); err != nil {
		return "", err
	}

	total := decimal.Zero
	totalCount := 0
	for _, b := range breakdowns {
		clientID := ""
		if b.Account != nil {
			clientID = b.Account.BrokerClientID
		}
		if b.Failed() {
			if err := cw.Write([]string{b.Label, clientID, "ERROR", "", "", b.Error}); err != nil {
				return "", err
			}
			continue
		}
		for _, s := range b.Strategies {
			rec := []string{b.Label, clientID, s.StrategyCode, strconv.Itoa(s.TradeCount), s.RealizedPnl.StringFixed(2), ""}
			if err := cw.Write(rec); err != nil {
				return "", err
			}
			total = total.Add(s.RealizedPnl)
			totalCount += s.TradeCount
		}
		if b.AccountPnl != nil {
			rec := []string{b.Label, clientID, "ACCOUNT", "", b.AccountPnl.Pnl.StringFixed(2), "source=" + b.AccountPnl.Source}
			if err := cw.Write(rec); err != nil {
				return "", err
			}
		}
	}
	if err := cw.Write([]string{"TOTAL", "", "", strconv.Itoa(totalCount), total.StringFixed(2), ""}); err != nil {
		return "", err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

// ShouldRunNow reports whether the market has closed on the exchange clock
// and today's report has not been written yet.
func (w *Writer) ShouldRunNow() (bool, string) {
	now := w.now().In(types.IST)
	outPath := csvPath(w.dir, now.Format("2006-01-02"))
	if now.After(marketCloseTime(now)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
