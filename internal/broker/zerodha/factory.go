package zerodha

import (
	"sync"
	"time"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/types"
)

type FactoryOptions struct {
	BaseURI string
	Timeout time.Duration
	// RequestsPerSecond paces calls per credential set; zero disables pacing
	RequestsPerSecond int
}

// NewFactory returns a BrokerFactory producing one Kite client per call.
// Clients built for the same credential set share one rate limiter.
func NewFactory(opts FactoryOptions) interfaces.BrokerFactory {
	var limiters sync.Map
	return func(creds types.Credentials) interfaces.BrokerClient {
		var client interfaces.BrokerClient = NewZerodha(Params{
			APIKey:      creds.APIKey,
			AccessToken: creds.AccessToken,
			BaseURI:     opts.BaseURI,
			Timeout:     opts.Timeout,
		})
		if opts.RequestsPerSecond > 0 {
			l, _ := limiters.LoadOrStore(creds.Key(), NewRateLimiter(opts.RequestsPerSecond, time.Second/time.Duration(opts.RequestsPerSecond)))
			client = Throttle(client, l.(*RateLimiter))
		}
		return client
	}
}
