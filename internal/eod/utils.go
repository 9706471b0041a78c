package eod

import (
	"path/filepath"
	"time"
)

func csvPath(dir, tradeDate string) string {
	return filepath.Join(dir, "eod", tradeDate+".csv")
}

// marketCloseTime is the cutoff after which the day's report may be written.
func marketCloseTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 40, 0, 0, t.Location())
}
