package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IST is the exchange wall clock.
var IST = time.FixedZone("IST", 5*3600+30*60)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// RawRecord is an untyped payload as returned by a broker endpoint.
type RawRecord map[string]any

type Credentials struct {
	Label       string
	APIKey      string
	AccessToken string
}

// Key identifies a unique credential set.
func (c Credentials) Key() string {
	return c.APIKey + ":" + c.AccessToken
}

// Trade is one executed fill.
type Trade struct {
	OrderID       string          `json:"orderId"`
	Symbol        string          `json:"instrumentSymbol"`
	Exchange      string          `json:"exchange"`
	Side          string          `json:"side"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	FillTimestamp time.Time       `json:"fillTimestamp"`
	Product       string          `json:"productType"`
	Tag           string          `json:"tag"`
}

// Valid reports whether the trade can take part in P&L matching.
func (t Trade) Valid() bool {
	return t.Quantity > 0 && t.Price.IsPositive()
}

func (t Trade) Tagged() bool {
	return t.Tag != ""
}

// InstrumentKey groups fills of the same instrument.
func (t Trade) InstrumentKey() string {
	return t.Exchange + ":" + t.Symbol
}

// MarshalJSON renders price as a number and an untagged fill's tag as null.
func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		OrderID       string    `json:"orderId"`
		Symbol        string    `json:"instrumentSymbol"`
		Exchange      string    `json:"exchange"`
		Side          string    `json:"side"`
		Quantity      int64     `json:"quantity"`
		Price         float64   `json:"price"`
		FillTimestamp time.Time `json:"fillTimestamp"`
		Product       string    `json:"productType"`
		Tag           *string   `json:"tag"`
	}{t.OrderID, t.Symbol, t.Exchange, t.Side, t.Quantity, t.Price.InexactFloat64(), t.FillTimestamp, t.Product, nullable(t.Tag)})
}

// OrderTags carries the strategy labels of one order.
type OrderTags struct {
	OrderID string
	Tag     string
	Tags    []string
}

// Resolve returns the primary tag, falling back to the secondary tags joined
// into one display string.
func (o OrderTags) Resolve() string {
	if tag := strings.TrimSpace(o.Tag); tag != "" {
		return tag
	}
	parts := make([]string, 0, len(o.Tags))
	for _, t := range o.Tags {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ", ")
}

type StrategyPnlResult struct {
	StrategyCode string
	RealizedPnl  decimal.Decimal
	TradeCount   int
}

func (r StrategyPnlResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		StrategyCode string  `json:"strategyCode"`
		Pnl          float64 `json:"pnl"`
		TradeCount   int     `json:"tradeCount"`
	}{r.StrategyCode, r.RealizedPnl.Round(2).InexactFloat64(), r.TradeCount})
}

type AccountIdentity struct {
	DisplayName    string
	BrokerClientID string
}

func (a AccountIdentity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name           *string `json:"name"`
		BrokerClientID *string `json:"brokerClientId"`
	}{nullable(a.DisplayName), nullable(a.BrokerClientID)})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// AccountPnl is the account level P&L for the day and where it came from.
type AccountPnl struct {
	Pnl    decimal.Decimal
	Source string
}

func (a AccountPnl) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Pnl    float64 `json:"pnl"`
		Source string  `json:"source"`
	}{a.Pnl.Round(2).InexactFloat64(), a.Source})
}

// AccountBreakdown is the per-account result of one breakdown run.
type AccountBreakdown struct {
	TradeDate  string              `json:"tradeDate"`
	Label      string              `json:"label,omitempty"`
	Account    *AccountIdentity    `json:"account"`
	Strategies []StrategyPnlResult `json:"strategies"`
	AccountPnl *AccountPnl         `json:"accountPnl,omitempty"`
	Error      string              `json:"error,omitempty"`

	// Unreported holds the NO_TAG bucket; computed for debugging, never persisted.
	Unreported   []StrategyPnlResult `json:"-"`
	Trades       []Trade             `json:"-"`
	Attributions []TagAttribution    `json:"-"`
}

// TagAttribution records which resolution rule tagged an order.
type TagAttribution struct {
	OrderID string `json:"orderId"`
	Symbol  string `json:"instrumentSymbol"`
	Rule    string `json:"rule"`
	Tag     string `json:"tag,omitempty"`
}

func (b AccountBreakdown) Failed() bool {
	return b.Error != ""
}

// Position is one row of the day position feed.
type Position struct {
	Symbol   string          `json:"instrumentSymbol"`
	Exchange string          `json:"exchange"`
	Product  string          `json:"productType"`
	Pnl      decimal.Decimal `json:"pnl"`
}
