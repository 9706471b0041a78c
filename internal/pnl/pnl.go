// Package pnl computes realized P&L per strategy from tagged fills.
package pnl

import (
	"sort"

	"github.com/shopspring/decimal"

	"strategy-pnl/internal/strategy"
	"strategy-pnl/internal/types"
)

const (
	SourcePositions = "positions"
	SourceTrades    = "trades"
	SourceNone      = "none"
)

// InstrumentDetail is the buy/sell book of one instrument within a strategy.
type InstrumentDetail struct {
	Instrument string          `json:"instrument"`
	BuyQty     int64           `json:"buyQty"`
	BuyValue   decimal.Decimal `json:"buyValue"`
	SellQty    int64           `json:"sellQty"`
	SellValue  decimal.Decimal `json:"sellValue"`
	Matched    int64           `json:"matchedQty"`
	Realized   decimal.Decimal `json:"realizedPnl"`
}

func (d InstrumentDetail) BuyAvg() decimal.Decimal {
	if d.BuyQty == 0 {
		return decimal.Zero
	}
	return d.BuyValue.Div(decimal.NewFromInt(d.BuyQty))
}

func (d InstrumentDetail) SellAvg() decimal.Decimal {
	if d.SellQty == 0 {
		return decimal.Zero
	}
	return d.SellValue.Div(decimal.NewFromInt(d.SellQty))
}

// StrategyDetail is one strategy bucket with its per-instrument books.
type StrategyDetail struct {
	StrategyCode string             `json:"strategyCode"`
	TradeCount   int                `json:"tradeCount"`
	RealizedPnl  decimal.Decimal    `json:"realizedPnl"`
	Instruments  []InstrumentDetail `json:"instruments"`
}

func (s StrategyDetail) Result() types.StrategyPnlResult {
	return types.StrategyPnlResult{
		StrategyCode: s.StrategyCode,
		RealizedPnl:  s.RealizedPnl,
		TradeCount:   s.TradeCount,
	}
}

// Aggregate returns realized P&L for every strategy bucket, NO_TAG included,
// sorted by code.
func Aggregate(trades []types.Trade) []types.StrategyPnlResult {
	details := Breakdown(trades)
	out := make([]types.StrategyPnlResult, len(details))
	for i, d := range details {
		out[i] = d.Result()
	}
	return out
}

// Breakdown is Aggregate with the per-instrument books kept.
func Breakdown(trades []types.Trade) []StrategyDetail {
	type bucket struct {
		count int
		books map[string]*InstrumentDetail
	}
	buckets := map[string]*bucket{}
	for _, t := range trades {
		if !t.Valid() {
			continue
		}
		code := strategy.Normalize(t.Tag)
		b := buckets[code]
		if b == nil {
			b = &bucket{books: map[string]*InstrumentDetail{}}
			buckets[code] = b
		}
		b.count++
		addFill(b.books, t)
	}

	codes := make([]string, 0, len(buckets))
	for code := range buckets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]StrategyDetail, 0, len(codes))
	for _, code := range codes {
		b := buckets[code]
		d := StrategyDetail{StrategyCode: code, TradeCount: b.count}
		total := decimal.Zero
		for _, book := range sortedBooks(b.books) {
			settle(book)
			total = total.Add(book.Realized)
			d.Instruments = append(d.Instruments, *book)
		}
		d.RealizedPnl = total.Round(2)
		out = append(out, d)
	}
	return out
}

// AccountPnl returns the account's P&L for the day. The position feed wins;
// when it is empty on the current day the figure is matched from all valid
// fills regardless of strategy.
func AccountPnl(positions []types.Position, trades []types.Trade, currentDay bool) types.AccountPnl {
	if len(positions) > 0 {
		total := decimal.Zero
		for _, p := range positions {
			total = total.Add(p.Pnl)
		}
		return types.AccountPnl{Pnl: total.Round(2), Source: SourcePositions}
	}
	if currentDay {
		books := map[string]*InstrumentDetail{}
		matched := false
		for _, t := range trades {
			if t.Valid() {
				addFill(books, t)
				matched = true
			}
		}
		if matched {
			total := decimal.Zero
			for _, book := range books {
				settle(book)
				total = total.Add(book.Realized)
			}
			return types.AccountPnl{Pnl: total.Round(2), Source: SourceTrades}
		}
	}
	return types.AccountPnl{Pnl: decimal.Zero, Source: SourceNone}
}

func addFill(books map[string]*InstrumentDetail, t types.Trade) {
	key := t.InstrumentKey()
	book := books[key]
	if book == nil {
		book = &InstrumentDetail{Instrument: key}
		books[key] = book
	}
	value := t.Price.Mul(decimal.NewFromInt(t.Quantity))
	switch t.Side {
	case types.SideBuy:
		book.BuyQty += t.Quantity
		book.BuyValue = book.BuyValue.Add(value)
	case types.SideSell:
		book.SellQty += t.Quantity
		book.SellValue = book.SellValue.Add(value)
	}
}

// settle realizes the matched quantity at each side's average price.
func settle(book *InstrumentDetail) {
	book.Matched = min(book.BuyQty, book.SellQty)
	if book.Matched == 0 {
		book.Realized = decimal.Zero
		return
	}
	m := decimal.NewFromInt(book.Matched)
	buyQty := decimal.NewFromInt(book.BuyQty)
	sellQty := decimal.NewFromInt(book.SellQty)
	// sellValue*m/sellQty - buyValue*m/buyQty over a common denominator.
	num := book.SellValue.Mul(m).Mul(buyQty).Sub(book.BuyValue.Mul(m).Mul(sellQty))
	book.Realized = num.Div(buyQty.Mul(sellQty))
}

func sortedBooks(books map[string]*InstrumentDetail) []*InstrumentDetail {
	out := make([]*InstrumentDetail, 0, len(books))
	for _, b := range books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}
