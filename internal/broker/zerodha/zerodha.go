package zerodha

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/types"
)

const defaultTimeout = 15 * time.Second

type Params struct {
	APIKey      string
	AccessToken string
	// BaseURI overrides the Kite API root; empty keeps the library default
	BaseURI string
	Timeout time.Duration
}

// Zerodha reads trades, orders, positions and profile from Kite Connect.
type Zerodha struct {
	kc *kiteconnect.Client
}

var _ interfaces.BrokerClient = (*Zerodha)(nil)

func NewZerodha(p Params) *Zerodha {
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	kc.SetHTTPClient(&http.Client{Timeout: timeout})

	if p.BaseURI != "" {
		kc.SetBaseURI(p.BaseURI)
	}

	return &Zerodha{kc: kc}
}

func (z *Zerodha) Trades(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trades, err := z.kc.GetTrades()
	if err != nil {
		return nil, fmt.Errorf("kite trades: %w", err)
	}
	return toRecords(trades)
}

func (z *Zerodha) Orders(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	orders, err := z.kc.GetOrders()
	if err != nil {
		return nil, fmt.Errorf("kite orders: %w", err)
	}
	return toRecords(orders)
}

func (z *Zerodha) DayPositions(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions, err := z.kc.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("kite positions: %w", err)
	}
	rec, err := toRecord(positions)
	if err != nil {
		return nil, err
	}
	return recordList(rec["day"])
}

func (z *Zerodha) Profile(ctx context.Context) (types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profile, err := z.kc.GetUserProfile()
	if err != nil {
		return nil, fmt.Errorf("kite profile: %w", err)
	}
	return toRecord(profile)
}

// recordList converts a decoded JSON array into records; nil yields an empty list.
func recordList(v any) ([]types.RawRecord, error) {
	if v == nil {
		return []types.RawRecord{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, errors.New("unexpected position payload shape")
	}
	out := make([]types.RawRecord, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, types.RawRecord(m))
		}
	}
	return out, nil
}
