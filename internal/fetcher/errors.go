package fetcher

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials    = errors.New("missing API key/access token")
	ErrInvalidTradeDate      = errors.New("trade date must be YYYY-MM-DD")
	ErrHistoricalUnavailable = errors.New("historical trades unavailable: the broker only lists fills for the current trading day")
)

// FetchError is a transport failure talking to the broker.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("broker %s request failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
