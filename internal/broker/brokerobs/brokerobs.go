package brokerobs

import (
	"context"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/trace"
	"strategy-pnl/internal/types"
)

// observableBroker wraps a BrokerClient with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.BrokerClient
}

// Compile-time interface check
var _ interfaces.BrokerClient = (*observableBroker)(nil)

// Wrap wraps a broker client with observability middleware
func Wrap(broker interfaces.BrokerClient) interfaces.BrokerClient {
	return &observableBroker{
		broker: broker,
	}
}

// WrapFactory wraps every client the factory produces
func WrapFactory(factory interfaces.BrokerFactory) interfaces.BrokerFactory {
	return func(creds types.Credentials) interfaces.BrokerClient {
		return Wrap(factory(creds))
	}
}

// Trades fetches the day's fills with observability
func (ob *observableBroker) Trades(ctx context.Context) ([]types.RawRecord, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Trades")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching trades")

	recs, err := ob.broker.Trades(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch trades", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Trades fetched successfully", "count", len(recs))
	return recs, nil
}

// Orders fetches the day's orders with observability
func (ob *observableBroker) Orders(ctx context.Context) ([]types.RawRecord, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Orders")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching orders")

	recs, err := ob.broker.Orders(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch orders", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Orders fetched successfully", "count", len(recs))
	return recs, nil
}

// DayPositions fetches the day position feed with observability
func (ob *observableBroker) DayPositions(ctx context.Context) ([]types.RawRecord, error) {
	ctx, span := trace.StartSpan(ctx, "broker.DayPositions")
	defer span.End()

	recs, err := ob.broker.DayPositions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch day positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Day positions fetched successfully", "count", len(recs))
	return recs, nil
}

// Profile fetches the account profile with observability
func (ob *observableBroker) Profile(ctx context.Context) (types.RawRecord, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Profile")
	defer span.End()

	rec, err := ob.broker.Profile(ctx)
	if err != nil {
		logger.WarnSkip(ctx, 1, "Failed to fetch profile", "error", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Profile fetched successfully")
	return rec, nil
}
