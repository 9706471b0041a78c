package eod

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-pnl/internal/types"
)

func TestWriteDay(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.WriteDay("2024-01-15", []types.AccountBreakdown{
		{
			TradeDate: "2024-01-15",
			Label:     "main",
			Account:   &types.AccountIdentity{BrokerClientID: "AB1234"},
			Strategies: []types.StrategyPnlResult{
				{StrategyCode: "S001", RealizedPnl: decimal.RequireFromString("500"), TradeCount: 2},
				{StrategyCode: "S002", RealizedPnl: decimal.RequireFromString("-20.5"), TradeCount: 3},
			},
			AccountPnl: &types.AccountPnl{Pnl: decimal.RequireFromString("430"), Source: "positions"},
		},
		{TradeDate: "2024-01-15", Label: "other", Error: "broker trades request failed: timeout"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eod", "2024-01-15.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 6)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"main", "AB1234", "S001", "2", "500.00", ""}, rows[1])
	assert.Equal(t, []string{"main", "AB1234", "S002", "3", "-20.50", ""}, rows[2])
	assert.Equal(t, []string{"main", "AB1234", "ACCOUNT", "", "430.00", "source=positions"}, rows[3])
	assert.Equal(t, "ERROR", rows[4][2])
	assert.Equal(t, []string{"TOTAL", "", "", "5", "479.50", ""}, rows[5])
}

func TestWriteDayNothingToReport(t *testing.T) {
	path, err := NewWriter(t.TempDir()).WriteDay("2024-01-15", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestShouldRunNow(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	w.now = func() time.Time { return time.Date(2024, 1, 15, 15, 0, 0, 0, types.IST) }
	run, _ := w.ShouldRunNow()
	assert.False(t, run)

	w.now = func() time.Time { return time.Date(2024, 1, 15, 16, 0, 0, 0, types.IST) }
	run, path := w.ShouldRunNow()
	assert.True(t, run)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	run, _ = w.ShouldRunNow()
	assert.False(t, run)
}
