package breakdown

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"strategy-pnl/internal/interfaces"
	"strategy-pnl/internal/types"
)

const DefaultConcurrency = 4

// Batch runs many accounts through a Breakdowner.
type Batch struct {
	svc   interfaces.Breakdowner
	limit int
	group singleflight.Group
}

func NewBatch(svc interfaces.Breakdowner, limit int) *Batch {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	return &Batch{svc: svc, limit: limit}
}

// RunAll returns one breakdown per input credential set, in input order.
// Repeated credential sets are computed once; each slot gets its own copy.
func (b *Batch) RunAll(ctx context.Context, creds []types.Credentials, tradeDate string) []types.AccountBreakdown {
	out := make([]types.AccountBreakdown, len(creds))

	first := make(map[string]int, len(creds))
	var unique []int
	for i, c := range creds {
		if _, seen := first[c.Key()]; !seen {
			first[c.Key()] = i
			unique = append(unique, i)
		}
	}

	var g errgroup.Group
	g.SetLimit(b.limit)
	for _, i := range unique {
		i := i
		g.Go(func() error {
			out[i] = b.run(ctx, creds[i], tradeDate)
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range creds {
		if j := first[c.Key()]; j != i {
			out[i] = cloneBreakdown(out[j])
			out[i].Label = c.Label
		}
	}
	return out
}

// run joins an in-flight computation for the same account and day started by
// another RunAll. The shared computation runs detached from any one caller's
// cancellation; a caller whose ctx ends stops waiting and gets ctx's error.
func (b *Batch) run(ctx context.Context, creds types.Credentials, tradeDate string) types.AccountBreakdown {
	shared := context.WithoutCancel(ctx)
	ch := b.group.DoChan(creds.Key()+"|"+tradeDate, func() (any, error) {
		return b.svc.Run(shared, creds, tradeDate), nil
	})

	select {
	case r := <-ch:
		res := cloneBreakdown(r.Val.(types.AccountBreakdown))
		res.Label = creds.Label
		return res
	case <-ctx.Done():
		return types.AccountBreakdown{
			TradeDate:  tradeDate,
			Label:      creds.Label,
			Strategies: []types.StrategyPnlResult{},
			Error:      ctx.Err().Error(),
		}
	}
}

func cloneBreakdown(b types.AccountBreakdown) types.AccountBreakdown {
	b.Strategies = slices.Clone(b.Strategies)
	b.Unreported = slices.Clone(b.Unreported)
	b.Trades = slices.Clone(b.Trades)
	b.Attributions = slices.Clone(b.Attributions)
	if b.Account != nil {
		id := *b.Account
		b.Account = &id
	}
	if b.AccountPnl != nil {
		ap := *b.AccountPnl
		b.AccountPnl = &ap
	}
	return b
}
