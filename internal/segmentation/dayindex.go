package segmentation

import (
	"fmt"
	"time"
)

// DayIndexer maps Unix timestamps to 1-based day indices relative to a
// market's first observed trade date. All calendar arithmetic is done
// on UTC dates so the mapping is deterministic regardless of the host
// timezone.
//
// The anchor is always derived from the market's trade set; price
// timestamps are mapped through the same indexer so cohort panels and
// the price series share one day coordinate. Indexers are scoped to a
// single market and must not be reused across markets.
type DayIndexer struct {
	anchor time.Time // UTC midnight of the earliest trade date
}

// NewDayIndexer builds an indexer anchored at the earliest date among
// the given trade timestamps. It fails when no timestamps are supplied.
func NewDayIndexer(timestamps []int64) (*DayIndexer, error) {
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no trade timestamps to anchor day index")
	}

	min := timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts < min {
			min = ts
		}
	}
	return &DayIndexer{anchor: utcDate(min)}, nil
}

// DayOf returns the day index for a timestamp. The earliest trade date
// maps to day 1. Timestamps from before the anchor date produce indices
// below 1; callers that require day >= 1 drop such observations.
func (d *DayIndexer) DayOf(ts int64) int {
	return int(utcDate(ts).Sub(d.anchor).Hours()/24) + 1
}

// IndexTrades anchors a day indexer on the trades' own timestamps and
// stamps the Day field on every trade.
func IndexTrades(trades []Trade) (*DayIndexer, error) {
	timestamps := make([]int64, len(trades))
	for i, tr := range trades {
		timestamps[i] = tr.Timestamp
	}
	indexer, err := NewDayIndexer(timestamps)
	if err != nil {
		return nil, err
	}
	for i := range trades {
		trades[i].Day = indexer.DayOf(trades[i].Timestamp)
	}
	return indexer, nil
}

// utcDate truncates a Unix timestamp to UTC midnight
func utcDate(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
