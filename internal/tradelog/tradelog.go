// Package tradelog keeps a JSON-lines audit trail of the fills behind each
// breakdown run.
package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"strategy-pnl/internal/strategy"
	"strategy-pnl/internal/types"
)

// Entry is one audited fill.
type Entry struct {
	Time          string `json:"time"`
	RunID         string `json:"runId"`
	Account       string `json:"account"`
	OrderID       string `json:"orderId"`
	Symbol        string `json:"instrumentSymbol"`
	Exchange      string `json:"exchange,omitempty"`
	Side          string `json:"side"`
	Qty           int64  `json:"quantity"`
	Price         string `json:"price"`
	FillTimestamp string `json:"fillTimestamp"`
	Product       string `json:"productType,omitempty"`
	Tag           string `json:"tag,omitempty"`
	StrategyCode  string `json:"strategyCode"`
	Rule          string `json:"rule,omitempty"`
	Excluded      bool   `json:"excluded,omitempty"`
}

type Log struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

func (l *Log) dailyFilepath(tradeDate string) string {
	return filepath.Join(l.dir, tradeDate+".txt")
}

// AppendBreakdown writes every fill of b, with the rule that tagged it.
// Failed breakdowns have no fills and write nothing.
func (l *Log) AppendBreakdown(runID string, b types.AccountBreakdown) error {
	if len(b.Trades) == 0 {
		return nil
	}
	rules := make(map[string]string, len(b.Attributions))
	for _, a := range b.Attributions {
		rules[a.OrderID] = a.Rule
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.dailyFilepath(b.TradeDate)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	now := l.now().In(types.IST).Format("2006-01-02 15:04:05")
	for _, t := range b.Trades {
		e := Entry{
			Time:          now,
			RunID:         runID,
			Account:       b.Label,
			OrderID:       t.OrderID,
			Symbol:        t.Symbol,
			Exchange:      t.Exchange,
			Side:          t.Side,
			Qty:           t.Quantity,
			Price:         t.Price.String(),
			FillTimestamp: t.FillTimestamp.Format(time.RFC3339),
			Product:       t.Product,
			Tag:           t.Tag,
			StrategyCode:  strategy.Normalize(t.Tag),
			Rule:          rules[t.OrderID],
			Excluded:      !t.Valid(),
		}
		line, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(f, string(line)); err != nil {
			return err
		}
	}
	return nil
}

// CompressOlder gzips audit files last modified more than retentionDays ago.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// a previous run compressed it but failed to remove the original
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
