package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-pnl/internal/types"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestAppendBreakdown(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)
	ts := time.Date(2024, 1, 15, 9, 45, 0, 0, types.IST)

	b := types.AccountBreakdown{
		TradeDate: "2024-01-15",
		Label:     "main",
		Trades: []types.Trade{
			{OrderID: "o1", Symbol: "INFY", Side: "BUY", Quantity: 10, Price: decimal.RequireFromString("100.5"), FillTimestamp: ts, Tag: "S001"},
			{OrderID: "o2", Symbol: "INFY", Side: "SELL", Quantity: 0, Price: decimal.RequireFromString("101"), FillTimestamp: ts},
		},
		Attributions: []types.TagAttribution{
			{OrderID: "o1", Rule: "direct", Tag: "S001"},
			{OrderID: "o2", Rule: "unresolved"},
		},
	}
	require.NoError(t, l.AppendBreakdown("run-1", b))
	require.NoError(t, l.AppendBreakdown("run-2", b))

	entries := readEntries(t, filepath.Join(dir, "2024-01-15.txt"))
	require.Len(t, entries, 4)
	assert.Equal(t, "run-1", entries[0].RunID)
	assert.Equal(t, "S001", entries[0].StrategyCode)
	assert.Equal(t, "direct", entries[0].Rule)
	assert.Equal(t, "100.5", entries[0].Price)
	assert.Equal(t, "NO_TAG", entries[1].StrategyCode)
	assert.True(t, entries[1].Excluded)
	assert.Equal(t, "run-2", entries[3].RunID)
}

func TestAppendBreakdownWithoutTrades(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, New(dir).AppendBreakdown("r", types.AccountBreakdown{TradeDate: "2024-01-15", Error: "x"}))
	_, err := os.Stat(filepath.Join(dir, "2024-01-15.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	l := New(dir)

	old := filepath.Join(dir, "2024-01-01.txt")
	fresh := filepath.Join(dir, "2024-01-15.txt")
	require.NoError(t, os.WriteFile(old, []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	require.NoError(t, l.CompressOlder(7))

	_, err := os.Stat(old)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(old + ".gz")
	assert.NoError(t, err)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)

	assert.NoError(t, l.CompressOlder(0))
}
