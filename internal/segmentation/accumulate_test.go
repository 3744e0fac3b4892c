package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flowTrade(day int, side Side, outcome Outcome, size float64) Trade {
	return Trade{
		MarketID: "mkt",
		Segment:  SegmentSmall,
		Day:      day,
		Side:     side,
		Outcome:  outcome,
		Size:     size,
	}
}

func TestBuildDailyPanel(t *testing.T) {
	t.Run("readme scenario with forward-filled gap day", func(t *testing.T) {
		trades := []Trade{
			// Day 1: Yes buys 50, Yes sells 20, No buys 15, No sells 5.
			flowTrade(1, SideBuy, OutcomeYes, 50),
			flowTrade(1, SideSell, OutcomeYes, 20),
			flowTrade(1, SideBuy, OutcomeNo, 15),
			flowTrade(1, SideSell, OutcomeNo, 5),
			// Day 2: Yes buys 25, Yes sells 15, No buys 8, No sells 12.
			flowTrade(2, SideBuy, OutcomeYes, 25),
			flowTrade(2, SideSell, OutcomeYes, 15),
			flowTrade(2, SideBuy, OutcomeNo, 8),
			flowTrade(2, SideSell, OutcomeNo, 12),
			// Day 3 has no trades; day 4 makes it an interior gap.
			flowTrade(4, SideBuy, OutcomeYes, 1),
		}

		rows := BuildDailyPanel(trades, SegmentSmall, "mkt")
		require.Len(t, rows, 4)

		assert.Equal(t, 30.0, rows[0].HY)
		assert.Equal(t, 10.0, rows[0].HN)
		require.True(t, rows[0].P.Valid)
		assert.InDelta(t, 0.75, rows[0].P.Float64, 1e-9)

		assert.Equal(t, 40.0, rows[1].HY)
		assert.Equal(t, 6.0, rows[1].HN)
		require.True(t, rows[1].P.Valid)
		assert.InDelta(t, 0.8696, rows[1].P.Float64, 1e-4)

		// Gap day carries the previous cumulative values unchanged.
		assert.Equal(t, rows[1].HY, rows[2].HY)
		assert.Equal(t, rows[1].HN, rows[2].HN)
		require.True(t, rows[2].P.Valid)
		assert.Equal(t, rows[1].P.Float64, rows[2].P.Float64)
	})

	t.Run("contiguous days from one to max", func(t *testing.T) {
		trades := []Trade{
			flowTrade(3, SideBuy, OutcomeYes, 10),
			flowTrade(7, SideSell, OutcomeNo, 4),
		}
		rows := BuildDailyPanel(trades, SegmentSmall, "mkt")
		require.Len(t, rows, 7)
		for i, row := range rows {
			assert.Equal(t, i+1, row.Day)
			assert.Equal(t, "mkt", row.MarketID)
			assert.Equal(t, SegmentSmall, row.Segment)
		}

		// Days 1-2 precede any flow: both legs flat, p undefined.
		assert.Equal(t, 0.0, rows[0].HY)
		assert.Equal(t, 0.0, rows[0].HN)
		assert.False(t, rows[0].P.Valid)
		assert.False(t, rows[1].P.Valid)
		assert.True(t, rows[2].P.Valid)
	})

	t.Run("sells drive the signal negative but bounded", func(t *testing.T) {
		trades := []Trade{
			flowTrade(1, SideSell, OutcomeYes, 30),
			flowTrade(2, SideBuy, OutcomeNo, 10),
		}
		rows := BuildDailyPanel(trades, SegmentSmall, "mkt")
		require.Len(t, rows, 2)

		require.True(t, rows[0].P.Valid)
		assert.InDelta(t, -1.0, rows[0].P.Float64, 1e-9)
		require.True(t, rows[1].P.Valid)
		assert.InDelta(t, -0.75, rows[1].P.Float64, 1e-9)
		for _, row := range rows {
			assert.GreaterOrEqual(t, row.P.Float64, -1.0)
			assert.LessOrEqual(t, row.P.Float64, 1.0)
		}
	})

	t.Run("undefined exactly when both legs are zero", func(t *testing.T) {
		trades := []Trade{
			flowTrade(1, SideBuy, OutcomeYes, 5),
			flowTrade(2, SideSell, OutcomeYes, 5),
		}
		rows := BuildDailyPanel(trades, SegmentSmall, "mkt")
		require.Len(t, rows, 2)
		assert.True(t, rows[0].P.Valid)
		// Flows cancel on day 2: the book is flat again, not at zero.
		assert.Equal(t, 0.0, rows[1].HY)
		assert.Equal(t, 0.0, rows[1].HN)
		assert.False(t, rows[1].P.Valid)
	})

	t.Run("other segments are excluded", func(t *testing.T) {
		trades := []Trade{
			flowTrade(1, SideBuy, OutcomeYes, 5),
			{MarketID: "mkt", Segment: SegmentWhale, Day: 9, Side: SideBuy, Outcome: OutcomeYes, Size: 100},
		}
		rows := BuildDailyPanel(trades, SegmentSmall, "mkt")
		require.Len(t, rows, 1)
		assert.Equal(t, 5.0, rows[0].HY)
	})

	t.Run("no trades yields no rows", func(t *testing.T) {
		assert.Nil(t, BuildDailyPanel(nil, SegmentWhale, "mkt"))
		assert.Nil(t, BuildDailyPanel([]Trade{flowTrade(1, SideBuy, OutcomeYes, 5)}, SegmentWhale, "mkt"))
	})
}

// Splitting the day range into two passes that carry the accumulators
// forward must match a single pass over the full range.
func TestAccumulationIsSplittable(t *testing.T) {
	trades := []Trade{
		flowTrade(1, SideBuy, OutcomeYes, 50),
		flowTrade(2, SideSell, OutcomeYes, 10),
		flowTrade(3, SideBuy, OutcomeNo, 30),
		flowTrade(5, SideSell, OutcomeNo, 12),
		flowTrade(6, SideBuy, OutcomeYes, 7),
	}

	full := BuildDailyPanel(trades, SegmentSmall, "mkt")
	require.Len(t, full, 6)

	var first, second []Trade
	for _, tr := range trades {
		if tr.Day <= 3 {
			first = append(first, tr)
		} else {
			second = append(second, tr)
		}
	}

	head := BuildDailyPanel(first, SegmentSmall, "mkt")
	require.Len(t, head, 3)

	hy, hn := head[len(head)-1].HY, head[len(head)-1].HN
	// Resume manually from the carried accumulators.
	netYes := map[int]float64{}
	netNo := map[int]float64{}
	for _, tr := range second {
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
	for day := 4; day <= 6; day++ {
		hy += netYes[day]
		hn += netNo[day]
		assert.Equal(t, full[day-1].HY, hy, "day %d HY", day)
		assert.Equal(t, full[day-1].HN, hn, "day %d HN", day)
	}
}
