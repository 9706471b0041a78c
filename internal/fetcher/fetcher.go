// Package fetcher pulls one account's fills and order tags for a trading day
// and normalizes them.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/types"
)

const dateLayout = "2006-01-02"

// Result is the normalized output of one fetch.
type Result struct {
	Trades []types.Trade
	Tags   map[string]types.OrderTags
	// Skipped counts raw records dropped for failing shape validation.
	Skipped int
}

type Fetcher struct {
	factory interfaces.BrokerFactory
	now     func() time.Time
}

type Option func(*Fetcher)

// WithClock overrides the clock used to decide the current trading day.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

func New(factory interfaces.BrokerFactory, opts ...Option) *Fetcher {
	f := &Fetcher{factory: factory, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Today returns the current trading day on the exchange clock.
func (f *Fetcher) Today() string {
	return f.now().In(types.IST).Format(dateLayout)
}

// Client builds a broker client for creds after checking them.
func (f *Fetcher) Client(creds types.Credentials) (interfaces.BrokerClient, error) {
	if creds.APIKey == "" || creds.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	return f.factory(creds), nil
}

// CheckDate validates tradeDate and rejects anything but the current day.
func (f *Fetcher) CheckDate(tradeDate string) error {
	if _, err := time.ParseInLocation(dateLayout, tradeDate, types.IST); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTradeDate, tradeDate)
	}
	if tradeDate != f.Today() {
		return fmt.Errorf("%w (requested %s, current %s)", ErrHistoricalUnavailable, tradeDate, f.Today())
	}
	return nil
}

// Fetch returns the normalized fills of tradeDate and the tag lookup of the
// day's orders.
func (f *Fetcher) Fetch(ctx context.Context, creds types.Credentials, tradeDate string) (Result, error) {
	empty := Result{Trades: []types.Trade{}, Tags: map[string]types.OrderTags{}}

	client, err := f.Client(creds)
	if err != nil {
		return empty, err
	}
	if err := f.CheckDate(tradeDate); err != nil {
		return empty, err
	}
	if err := ctx.Err(); err != nil {
		return empty, err
	}

	rawTrades, err := client.Trades(ctx)
	if err != nil {
		return empty, &FetchError{Op: "trades", Err: err}
	}
	rawOrders, err := client.Orders(ctx)
	if err != nil {
		return empty, &FetchError{Op: "orders", Err: err}
	}

	res := empty
	for _, rec := range rawTrades {
		t, ok := NormalizeTrade(rec)
		if !ok {
			res.Skipped++
			continue
		}
		if t.FillTimestamp.Format(dateLayout) != tradeDate {
			continue
		}
		res.Trades = append(res.Trades, t)
	}
	for _, rec := range rawOrders {
		o, ok := NormalizeOrderTags(rec)
		if !ok {
			res.Skipped++
			continue
		}
		res.Tags[o.OrderID] = o
	}

	if res.Skipped > 0 {
		logger.Warn(ctx, "Skipped malformed broker records", "account", creds.Label, "skipped", res.Skipped)
	}
	return res, nil
}

// Identity reads the account profile.
func (f *Fetcher) Identity(ctx context.Context, creds types.Credentials) (*types.AccountIdentity, error) {
	client, err := f.Client(creds)
	if err != nil {
		return nil, err
	}
	rec, err := client.Profile(ctx)
	if err != nil {
		return nil, &FetchError{Op: "profile", Err: err}
	}
	return NormalizeIdentity(rec), nil
}

// DayPositions reads the day position feed.
func (f *Fetcher) DayPositions(ctx context.Context, creds types.Credentials) ([]types.Position, error) {
	client, err := f.Client(creds)
	if err != nil {
		return nil, err
	}
	recs, err := client.DayPositions(ctx)
	if err != nil {
		return nil, &FetchError{Op: "positions", Err: err}
	}
	out := make([]types.Position, 0, len(recs))
	for _, rec := range recs {
		if p, ok := NormalizePosition(rec); ok {
			out = append(out, p)
		}
	}
	return out, nil
}
