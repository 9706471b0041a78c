package pnl

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-pnl/internal/strategy"
	"strategy-pnl/internal/types"
)

var open = time.Date(2024, 1, 15, 9, 15, 0, 0, types.IST)

func trade(id, tag, symbol, side string, qty int64, price string) types.Trade {
	return types.Trade{
		OrderID:       id,
		Symbol:        symbol,
		Exchange:      "NSE",
		Side:          side,
		Quantity:      qty,
		Price:         decimal.RequireFromString(price),
		FillTimestamp: open,
		Product:       "MIS",
		Tag:           tag,
	}
}

func byCode(results []types.StrategyPnlResult) map[string]types.StrategyPnlResult {
	out := map[string]types.StrategyPnlResult{}
	for _, r := range results {
		out[r.StrategyCode] = r
	}
	return out
}

func render(results []types.StrategyPnlResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = fmt.Sprintf("%s:%s:%d", r.StrategyCode, r.RealizedPnl.StringFixed(2), r.TradeCount)
	}
	return out
}

func TestAggregateRoundTrip(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S001", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "S001", "INFY", types.SideSell, 10, "150"),
	}
	results := Aggregate(trades)
	require.Len(t, results, 1)
	assert.Equal(t, "S001", results[0].StrategyCode)
	assert.Equal(t, "500", results[0].RealizedPnl.String())
	assert.Equal(t, 2, results[0].TradeCount)
}

func TestUnmatchedQuantityContributesNothing(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S001", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "S001", "INFY", types.SideBuy, 10, "110"),
		trade("o3", "S001", "INFY", types.SideSell, 5, "120"),
	}
	// matched 5 at avg buy 105 vs sell 120
	r := byCode(Aggregate(trades))["S001"]
	assert.Equal(t, "75", r.RealizedPnl.String())
	assert.Equal(t, 3, r.TradeCount)
}

func TestOneSidedBucketReportsZero(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S002", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "S002", "TCS", types.SideBuy, 3, "3500"),
	}
	r := byCode(Aggregate(trades))["S002"]
	assert.True(t, r.RealizedPnl.IsZero())
	assert.Equal(t, 2, r.TradeCount)
}

func TestVariantTagsMergeIntoOneBucket(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S1", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "s001-x", "INFY", types.SideSell, 5, "110"),
		trade("o3", "S001", "INFY", types.SideSell, 5, "130"),
	}
	results := Aggregate(trades)
	require.Len(t, results, 1)
	assert.Equal(t, "S001", results[0].StrategyCode)
	assert.Equal(t, "200", results[0].RealizedPnl.String())
	assert.Equal(t, 3, results[0].TradeCount)
}

func TestInstrumentsAreMatchedSeparately(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S001", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "S001", "TCS", types.SideSell, 10, "150"),
	}
	r := byCode(Aggregate(trades))["S001"]
	assert.True(t, r.RealizedPnl.IsZero())

	nse := trade("o3", "S001", "INFY", types.SideSell, 10, "150")
	bse := nse
	bse.Exchange = "BSE"
	details := Breakdown([]types.Trade{trades[0], bse})
	require.Len(t, details, 1)
	assert.Len(t, details[0].Instruments, 2)
	assert.True(t, details[0].RealizedPnl.IsZero())
}

func TestUntaggedFillsLandInNoTag(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "", "INFY", types.SideBuy, 1, "100"),
		trade("o2", "manual", "INFY", types.SideSell, 1, "90"),
		trade("o3", "S003", "INFY", types.SideSell, 1, "90"),
	}
	m := byCode(Aggregate(trades))
	assert.Equal(t, "-10", m[strategy.NoTag].RealizedPnl.String())
	assert.Equal(t, 2, m[strategy.NoTag].TradeCount)
	assert.Equal(t, 1, m["S003"].TradeCount)
}

func TestRoundingHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		buy, sell string
		qty       int64
		want      string
	}{
		{"100", "100.005", 1, "0.01"},
		{"100.005", "100", 1, "-0.01"},
		{"10.333", "10", 3, "-1"},
		{"1", "1.0049", 1, "0"},
	}
	for _, tt := range tests {
		r := Aggregate([]types.Trade{
			trade("b", "S001", "X", types.SideBuy, tt.qty, tt.buy),
			trade("s", "S001", "X", types.SideSell, tt.qty, tt.sell),
		})
		assert.Equal(t, tt.want, r[0].RealizedPnl.String(), "buy %s sell %s", tt.buy, tt.sell)
	}
}

func TestVWAPUsesExactDivision(t *testing.T) {
	// avg buy = 100/3, avg sell = 40; matched 3
	trades := []types.Trade{
		trade("b1", "S001", "X", types.SideBuy, 1, "30"),
		trade("b2", "S001", "X", types.SideBuy, 2, "35"),
		trade("s1", "S001", "X", types.SideSell, 3, "40"),
	}
	d := Breakdown(trades)[0]
	assert.Equal(t, "20", d.RealizedPnl.String())
	assert.Equal(t, int64(3), d.Instruments[0].Matched)
	assert.Equal(t, "40", d.Instruments[0].SellAvg().String())
}

func TestInvalidTradesAreExcluded(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S001", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "S001", "INFY", types.SideSell, 10, "150"),
		trade("o3", "S001", "INFY", types.SideSell, 0, "150"),
		trade("o4", "S001", "INFY", types.SideSell, 10, "0"),
	}
	r := byCode(Aggregate(trades))["S001"]
	assert.Equal(t, "500", r.RealizedPnl.String())
	assert.Equal(t, 2, r.TradeCount)
}

func TestAggregatePermutationInvariant(t *testing.T) {
	var trades []types.Trade
	prices := []string{"101.35", "99.10", "100.00", "102.75", "98.60", "100.45"}
	for i, p := range prices {
		side := types.SideBuy
		if i%2 == 1 {
			side = types.SideSell
		}
		trades = append(trades,
			trade("a", "S001", "INFY", side, int64(i+1), p),
			trade("b", "S2", "TCS", side, int64(7-i), p),
			trade("c", "", "INFY", side, 3, p),
		)
	}
	want := render(Aggregate(trades))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		shuffled := append([]types.Trade(nil), trades...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, want, render(Aggregate(shuffled)))
	}
}

func TestAggregateIdempotent(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S001", "INFY", types.SideBuy, 10, "100.10"),
		trade("o2", "S001", "INFY", types.SideSell, 10, "101.15"),
	}
	assert.Equal(t, render(Aggregate(trades)), render(Aggregate(trades)))
	assert.Empty(t, Aggregate(nil))
}

func TestAccountPnl(t *testing.T) {
	trades := []types.Trade{
		trade("o1", "S001", "INFY", types.SideBuy, 10, "100"),
		trade("o2", "", "INFY", types.SideSell, 10, "150"),
	}

	fromPositions := AccountPnl([]types.Position{
		{Symbol: "INFY", Pnl: decimal.RequireFromString("410.255")},
		{Symbol: "TCS", Pnl: decimal.RequireFromString("-10")},
	}, trades, true)
	assert.Equal(t, SourcePositions, fromPositions.Source)
	assert.Equal(t, "400.26", fromPositions.Pnl.String())

	fromTrades := AccountPnl(nil, trades, true)
	assert.Equal(t, SourceTrades, fromTrades.Source)
	assert.Equal(t, "500", fromTrades.Pnl.String())

	none := AccountPnl(nil, trades, false)
	assert.Equal(t, SourceNone, none.Source)
	assert.True(t, none.Pnl.IsZero())

	assert.Equal(t, SourceNone, AccountPnl(nil, nil, true).Source)
}
