package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-pnl/internal/broker/snapshot"
	"strategy-pnl/internal/types"
)

func TestRunDayFromSnapshots(t *testing.T) {
	dir := t.TempDir()
	today := time.Now().In(types.IST)
	day := today.Format("2006-01-02")
	at := func(hhmm string) string { return day + " " + hhmm + ":00" }

	config := `
data_source: SNAPSHOT
snapshot_dir: ` + filepath.Join(dir, "snapshots") + `
include_account_pnl: true
database:
  path: ` + filepath.Join(dir, "pnl.db") + `
report:
  dir: ` + filepath.Join(dir, "reports") + `
accounts:
  - name: desk
    api_key_env: TEST_DESK_KEY
    access_token_env: TEST_DESK_TOKEN
`
	cfgFile = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(config), 0o644))
	t.Setenv("TEST_DESK_KEY", "key")
	t.Setenv("TEST_DESK_TOKEN", "token")
	accountName, tradeDate = "", ""

	require.NoError(t, snapshot.Save(snapshot.PathFor(filepath.Join(dir, "snapshots"), "desk"), snapshot.Payload{
		Trades: []types.RawRecord{
			{"order_id": "o1", "tradingsymbol": "INFY", "exchange": "NSE", "transaction_type": "BUY",
				"quantity": json.Number("10"), "average_price": json.Number("100"), "fill_timestamp": at("09:15"), "product": "MIS"},
			{"order_id": "o2", "tradingsymbol": "INFY", "exchange": "NSE", "transaction_type": "SELL",
				"quantity": json.Number("10"), "average_price": json.Number("150"), "fill_timestamp": at("09:45"), "product": "MIS"},
		},
		Orders:  []types.RawRecord{{"order_id": "o1", "tag": "S001"}},
		Profile: types.RawRecord{"user_name": "Desk", "user_id": "AB1234"},
	}))

	ctx := context.Background()
	a, err := newApp(ctx)
	require.NoError(t, err)
	defer a.Close()

	results, err := a.runDay(ctx, a.date())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Failed(), results[0].Error)
	require.Len(t, results[0].Strategies, 1)
	assert.Equal(t, "500", results[0].Strategies[0].RealizedPnl.String())
	require.NotNil(t, results[0].AccountPnl)
	assert.Equal(t, "trades", results[0].AccountPnl.Source)

	rows, err := a.results.ListDay(ctx, day)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "desk", rows[0].Account)

	_, err = os.Stat(filepath.Join(dir, "reports", "eod", day+".csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "reports", "trades", day+".txt"))
	assert.NoError(t, err)
}
