package segmentation

import (
	"database/sql"
	"math"
)

// BuildDailyPanel turns day-indexed trades for one (market, segment)
// pair into a contiguous daily panel with running net positions.
//
// For each day the net flow per outcome leg is the sum of buy sizes
// minus the sum of sell sizes. The running accumulators HY and HN start
// at zero before day 1 and pick up each day's net flow in order; days
// with no trades contribute zero, which forward-fills the previous
// cumulative values. One row is produced for EVERY integer day in
// [1, maxDay] so the output has no gaps.
//
// A segment with no trades yields an empty panel (nil); callers handle
// absence rather than assuming a zero-filled panel exists.
func BuildDailyPanel(trades []Trade, segment Segment, marketID string) []PanelRow {
	maxDay := 0
	for _, tr := range trades {
		if tr.Segment != segment || tr.Day < 1 {
			continue
		}
		if tr.Day > maxDay {
			maxDay = tr.Day
		}
	}
	if maxDay == 0 {
		return nil
	}

	netYes := make([]float64, maxDay+1)
	netNo := make([]float64, maxDay+1)
	for _, tr := range trades {
		if tr.Segment != segment || tr.Day < 1 {
			continue
		}
		flow := tr.Size
		if tr.Side == SideSell {
			flow = -flow
		}
		if tr.Outcome == OutcomeYes {
			netYes[tr.Day] += flow
		} else {
			netNo[tr.Day] += flow
		}
	}

	rows := make([]PanelRow, 0, maxDay)
	var hy, hn float64
	for day := 1; day <= maxDay; day++ {
		hy += netYes[day]
		hn += netNo[day]
		rows = append(rows, PanelRow{
			Segment:  segment,
			MarketID: marketID,
			Day:      day,
			HY:       hy,
			HN:       hn,
			P:        impliedProbability(hy, hn),
		})
	}
	return rows
}

// impliedProbability computes the bounded sentiment signal
// p = HY / (|HY| + |HN|). The result is invalid when the denominator is
// zero: a flat book is "no information", which is semantically distinct
// from a balanced book at zero.
func impliedProbability(hy, hn float64) sql.NullFloat64 {
	denom := math.Abs(hy) + math.Abs(hn)
	if denom == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: hy / denom, Valid: true}
}
