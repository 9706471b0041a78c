package zerodha

import (
	"bytes"
	"encoding/json"
	"fmt"

	"strategy-pnl/internal/types"
)

// toRecords re-encodes typed library payloads as untyped records. Numbers are
// kept as json.Number so prices reach the fetcher without float rounding.
func toRecords(v any) ([]types.RawRecord, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode broker payload: %w", err)
	}
	var out []types.RawRecord
	if err := decode(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.RawRecord{}
	}
	return out, nil
}

func toRecord(v any) (types.RawRecord, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode broker payload: %w", err)
	}
	var out types.RawRecord
	if err := decode(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode broker payload: %w", err)
	}
	return nil
}
