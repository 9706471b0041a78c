package fetcher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"strategy-pnl/internal/types"
)

var (
	symbolKeys    = []string{"tradingsymbol", "trading_symbol", "symbol"}
	sideKeys      = []string{"transaction_type", "side"}
	priceKeys     = []string{"average_price", "price"}
	timestampKeys = []string{"fill_timestamp", "exchange_timestamp", "order_timestamp", "timestamp"}
	productKeys   = []string{"product", "product_type"}
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// NormalizeTrade maps one raw trade record. ok is false when the record lacks
// a field the P&L math depends on.
func NormalizeTrade(rec types.RawRecord) (types.Trade, bool) {
	orderID := stringField(rec, "order_id")
	symbol := firstString(rec, symbolKeys)
	side := strings.ToUpper(firstString(rec, sideKeys))
	if orderID == "" || symbol == "" || (side != types.SideBuy && side != types.SideSell) {
		return types.Trade{}, false
	}

	qty, ok := integerField(rec["quantity"])
	if !ok {
		return types.Trade{}, false
	}

	var price decimal.Decimal
	for _, k := range priceKeys {
		if p, ok := decimalField(rec[k]); ok {
			price = p
			break
		}
	}

	var ts time.Time
	for _, k := range timestampKeys {
		if t, ok := ParseTimestamp(rec[k]); ok {
			ts = t
			break
		}
	}
	if ts.IsZero() {
		return types.Trade{}, false
	}

	return types.Trade{
		OrderID:       orderID,
		Symbol:        symbol,
		Exchange:      stringField(rec, "exchange"),
		Side:          side,
		Quantity:      qty,
		Price:         price,
		FillTimestamp: ts,
		Product:       firstString(rec, productKeys),
	}, true
}

// NormalizeOrderTags maps one raw order record to its tags.
func NormalizeOrderTags(rec types.RawRecord) (types.OrderTags, bool) {
	orderID := stringField(rec, "order_id")
	if orderID == "" {
		return types.OrderTags{}, false
	}
	return types.OrderTags{
		OrderID: orderID,
		Tag:     stringField(rec, "tag"),
		Tags:    tagList(rec["tags"]),
	}, true
}

// NormalizePosition maps one day position row. Rows without a pnl figure are
// rejected.
func NormalizePosition(rec types.RawRecord) (types.Position, bool) {
	pnl, ok := decimalField(rec["pnl"])
	if !ok {
		return types.Position{}, false
	}
	return types.Position{
		Symbol:   firstString(rec, symbolKeys),
		Exchange: stringField(rec, "exchange"),
		Product:  firstString(rec, productKeys),
		Pnl:      pnl,
	}, true
}

// NormalizeIdentity maps the profile payload. Returns nil when neither a
// name nor a client id is present.
func NormalizeIdentity(rec types.RawRecord) *types.AccountIdentity {
	id := types.AccountIdentity{
		DisplayName:    firstString(rec, []string{"user_name", "name"}),
		BrokerClientID: firstString(rec, []string{"user_id", "client_id"}),
	}
	if id.DisplayName == "" && id.BrokerClientID == "" {
		return nil
	}
	return &id
}

// ParseTimestamp accepts broker timestamp encodings. Zoneless values are read
// on the exchange clock.
func ParseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, types.IST)
		}
		if err == nil && !t.IsZero() {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstString(rec types.RawRecord, keys []string) string {
	for _, k := range keys {
		if s := stringField(rec, k); s != "" {
			return s
		}
	}
	return ""
}

func stringField(rec types.RawRecord, key string) string {
	switch v := rec[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

func decimalField(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	}
	return decimal.Decimal{}, false
}

func integerField(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func tagList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" && item != nil {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return nil
}
