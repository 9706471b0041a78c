package interfaces

import (
	"context"

	"strategy-pnl/internal/types"
)

// BrokerClient is the read-only slice of the brokerage API the engine needs.
// Records are returned untyped; normalization happens in the fetcher.
type BrokerClient interface {
	// Trades returns the fills of the current trading session
	Trades(ctx context.Context) ([]types.RawRecord, error)

	// Orders returns the orders of the current trading session
	Orders(ctx context.Context) ([]types.RawRecord, error)

	// DayPositions returns the day position feed
	DayPositions(ctx context.Context) ([]types.RawRecord, error)

	// Profile returns the account holder's profile
	Profile(ctx context.Context) (types.RawRecord, error)
}

// BrokerFactory builds a client bound to one credential set.
type BrokerFactory func(creds types.Credentials) BrokerClient
