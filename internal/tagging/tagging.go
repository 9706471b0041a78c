// Package tagging fills in missing strategy tags on fills.
//
// Tags are resolved by an ordered rule chain. A fill that already carries a
// tag is never re-tagged, and only fills tagged from their own order are used
// as evidence for inferring tags on the rest. This keeps the output
// independent of input order.
package tagging

import (
	"context"
	"sort"

	"strategy-pnl/internal/logger"
	"strategy-pnl/internal/strategy"
	"strategy-pnl/internal/types"
)

const (
	RuleExisting   = "existing"
	RuleDirect     = "direct"
	RuleStopLoss   = "stop-loss"
	RuleMajority   = "majority"
	RuleUnresolved = "unresolved"
)

// Candidate is a directly tagged fill and its input position.
type Candidate struct {
	Index int
	Trade types.Trade
}

// Pool is the evidence a rule may consult.
type Pool struct {
	Lookup map[string]types.OrderTags
	Tagged []Candidate
}

// Rule returns a tag for t, or ok=false to defer to the next rule.
type Rule struct {
	Name  string
	Match func(t types.Trade, pool *Pool) (tag string, ok bool)
}

type Attribution = types.TagAttribution

type Resolver struct {
	rules []Rule
}

// NewResolver returns a resolver running direct, then stop-loss, then
// majority inference.
func NewResolver() *Resolver {
	return &Resolver{rules: []Rule{DirectRule, StopLossRule, MajorityRule}}
}

// NewResolverWithRules builds a resolver with a custom chain. The pool is
// always seeded from pre-tagged fills and the direct rule.
func NewResolverWithRules(rules ...Rule) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve returns a copy of trades with tags filled in where a rule matched.
func (r *Resolver) Resolve(ctx context.Context, trades []types.Trade, lookup map[string]types.OrderTags) []types.Trade {
	out, _ := r.ResolveWithReport(ctx, trades, lookup)
	return out
}

// ResolveWithReport is Resolve plus one attribution per input fill.
func (r *Resolver) ResolveWithReport(ctx context.Context, trades []types.Trade, lookup map[string]types.OrderTags) ([]types.Trade, []Attribution) {
	out := make([]types.Trade, len(trades))
	copy(out, trades)

	pool := &Pool{Lookup: lookup}
	for i, t := range out {
		if t.Tagged() {
			pool.Tagged = append(pool.Tagged, Candidate{Index: i, Trade: t})
			continue
		}
		if tag, ok := DirectRule.Match(t, pool); ok {
			t.Tag = tag
			pool.Tagged = append(pool.Tagged, Candidate{Index: i, Trade: t})
		}
	}

	report := make([]Attribution, len(out))
	for i := range out {
		t := out[i]
		attr := Attribution{OrderID: t.OrderID, Symbol: t.Symbol, Rule: RuleUnresolved}
		if t.Tagged() {
			attr.Rule, attr.Tag = RuleExisting, t.Tag
			report[i] = attr
			continue
		}
		for _, rule := range r.rules {
			tag, ok := rule.Match(t, pool)
			if !ok {
				continue
			}
			out[i].Tag = tag
			attr.Rule, attr.Tag = rule.Name, tag
			if rule.Name != RuleDirect {
				logger.Inference(ctx, t.OrderID, t.Symbol, rule.Name, tag, "side", t.Side, "product", t.Product)
			}
			break
		}
		report[i] = attr
	}
	return out, report
}

// DirectRule uses the fill's own order tag, falling back to its secondary tags.
var DirectRule = Rule{
	Name: RuleDirect,
	Match: func(t types.Trade, pool *Pool) (string, bool) {
		o, ok := pool.Lookup[t.OrderID]
		if !ok {
			return "", false
		}
		tag := o.Resolve()
		return tag, tag != ""
	},
}

// StopLossRule treats an untagged fill as the exit of the most recent
// earlier entry on the opposite side of the same instrument and product.
var StopLossRule = Rule{
	Name: RuleStopLoss,
	Match: func(t types.Trade, pool *Pool) (string, bool) {
		var best *Candidate
		for i := range pool.Tagged {
			c := &pool.Tagged[i]
			if !sameBook(c.Trade, t) || c.Trade.Side == t.Side || !c.Trade.FillTimestamp.Before(t.FillTimestamp) {
				continue
			}
			if best == nil || moreRecent(*c, *best) {
				best = c
			}
		}
		if best == nil {
			return "", false
		}
		return best.Trade.Tag, true
	},
}

// MajorityRule assigns the strategy most represented among tagged fills of
// the same instrument and product.
var MajorityRule = Rule{
	Name: RuleMajority,
	Match: func(t types.Trade, pool *Pool) (string, bool) {
		type group struct {
			code   string
			count  int
			latest Candidate
		}
		groups := map[string]*group{}
		for _, c := range pool.Tagged {
			if !sameBook(c.Trade, t) {
				continue
			}
			code := strategy.Normalize(c.Trade.Tag)
			g, ok := groups[code]
			if !ok {
				groups[code] = &group{code: code, count: 1, latest: c}
				continue
			}
			g.count++
			if moreRecent(c, g.latest) {
				g.latest = c
			}
		}
		if len(groups) == 0 {
			return "", false
		}

		ranked := make([]*group, 0, len(groups))
		for _, g := range groups {
			ranked = append(ranked, g)
		}
		sort.Slice(ranked, func(i, j int) bool {
			a, b := ranked[i], ranked[j]
			if a.count != b.count {
				return a.count > b.count
			}
			if !a.latest.Trade.FillTimestamp.Equal(b.latest.Trade.FillTimestamp) {
				return a.latest.Trade.FillTimestamp.After(b.latest.Trade.FillTimestamp)
			}
			if strategy.Reportable(a.code) != strategy.Reportable(b.code) {
				return strategy.Reportable(a.code)
			}
			return a.code < b.code
		})
		return ranked[0].latest.Trade.Tag, true
	},
}

func sameBook(a, b types.Trade) bool {
	return a.Symbol == b.Symbol && a.Product == b.Product
}

// moreRecent orders candidates by fill time descending, then order id and
// input position ascending.
func moreRecent(a, b Candidate) bool {
	if !a.Trade.FillTimestamp.Equal(b.Trade.FillTimestamp) {
		return a.Trade.FillTimestamp.After(b.Trade.FillTimestamp)
	}
	if a.Trade.OrderID != b.Trade.OrderID {
		return a.Trade.OrderID < b.Trade.OrderID
	}
	return a.Index < b.Index
}
