package segmentation

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defined(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func panelRow(segment Segment, day int, p sql.NullFloat64) PanelRow {
	return PanelRow{Segment: segment, MarketID: "mkt", Day: day, P: p}
}

func TestReducePriceSeries(t *testing.T) {
	indexer, err := NewDayIndexer([]int64{unixUTC(2024, time.April, 1, 9)})
	require.NoError(t, err)

	t.Run("last observation per day wins", func(t *testing.T) {
		points := []PricePoint{
			{Timestamp: unixUTC(2024, time.April, 1, 10), Price: 0.40},
			{Timestamp: unixUTC(2024, time.April, 1, 16), Price: 0.45},
			{Timestamp: unixUTC(2024, time.April, 3, 8), Price: 0.52},
		}
		reduced := ReducePriceSeries(points, indexer)
		require.Len(t, reduced, 2)
		assert.Equal(t, DayPrice{Day: 1, Price: 0.45}, reduced[0])
		assert.Equal(t, DayPrice{Day: 3, Price: 0.52}, reduced[1])
	})

	t.Run("unordered input is sorted by timestamp first", func(t *testing.T) {
		points := []PricePoint{
			{Timestamp: unixUTC(2024, time.April, 2, 20), Price: 0.60},
			{Timestamp: unixUTC(2024, time.April, 2, 9), Price: 0.55},
		}
		reduced := ReducePriceSeries(points, indexer)
		require.Len(t, reduced, 1)
		assert.Equal(t, 0.60, reduced[0].Price)
	})

	t.Run("points before the first trade date are dropped", func(t *testing.T) {
		points := []PricePoint{
			{Timestamp: unixUTC(2024, time.March, 28, 12), Price: 0.30},
			{Timestamp: unixUTC(2024, time.April, 2, 12), Price: 0.50},
		}
		reduced := ReducePriceSeries(points, indexer)
		require.Len(t, reduced, 1)
		assert.Equal(t, 2, reduced[0].Day)
	})

	t.Run("nil inputs", func(t *testing.T) {
		assert.Nil(t, ReducePriceSeries(nil, indexer))
		assert.Nil(t, ReducePriceSeries([]PricePoint{{Timestamp: 1, Price: 1}}, nil))
	})
}

func TestMergePanels(t *testing.T) {
	t.Run("disjoint cohort day sets forward-fill independently", func(t *testing.T) {
		panels := map[Segment][]PanelRow{
			SegmentWhale: {
				panelRow(SegmentWhale, 1, defined(0.8)),
				panelRow(SegmentWhale, 2, defined(0.9)),
			},
			SegmentSmall: {
				panelRow(SegmentSmall, 3, defined(-0.2)),
				panelRow(SegmentSmall, 4, defined(-0.4)),
			},
		}

		merged := MergePanels(panels, nil)
		require.Len(t, merged, 4)

		// Whale defined on days 1-2, then carried into 3-4.
		assert.Equal(t, defined(0.8), merged[0].PWhale)
		assert.Equal(t, defined(0.9), merged[1].PWhale)
		assert.Equal(t, defined(0.9), merged[2].PWhale)
		assert.Equal(t, defined(0.9), merged[3].PWhale)

		// Small has a leading gap on days 1-2, then its own values.
		assert.False(t, merged[0].PSmall.Valid)
		assert.False(t, merged[1].PSmall.Valid)
		assert.Equal(t, defined(-0.2), merged[2].PSmall)
		assert.Equal(t, defined(-0.4), merged[3].PSmall)

		// Cohorts with no panel stay undefined throughout.
		for _, row := range merged {
			assert.False(t, row.PLarge.Valid)
			assert.False(t, row.PMedium.Valid)
			assert.False(t, row.PMarket.Valid)
		}
	})

	t.Run("price series joins on the shared day coordinate", func(t *testing.T) {
		panels := map[Segment][]PanelRow{
			SegmentMedium: {
				panelRow(SegmentMedium, 1, defined(0.5)),
				panelRow(SegmentMedium, 2, defined(0.6)),
				panelRow(SegmentMedium, 3, defined(0.7)),
			},
		}
		prices := []DayPrice{{Day: 2, Price: 0.41}, {Day: 5, Price: 0.44}}

		merged := MergePanels(panels, prices)
		require.Len(t, merged, 4) // union of {1,2,3} and {2,5}
		assert.Equal(t, []int{1, 2, 3, 5}, []int{merged[0].Day, merged[1].Day, merged[2].Day, merged[3].Day})

		assert.False(t, merged[0].PMarket.Valid)
		assert.Equal(t, defined(0.41), merged[1].PMarket)
		assert.Equal(t, defined(0.41), merged[2].PMarket) // forward-filled
		assert.Equal(t, defined(0.44), merged[3].PMarket)

		// Cohort column forward-fills into the price-only day.
		assert.Equal(t, defined(0.7), merged[3].PMedium)
	})

	t.Run("undefined panel values are no new information", func(t *testing.T) {
		panels := map[Segment][]PanelRow{
			SegmentLarge: {
				panelRow(SegmentLarge, 1, defined(0.3)),
				panelRow(SegmentLarge, 2, sql.NullFloat64{}),
				panelRow(SegmentLarge, 3, defined(0.1)),
			},
		}
		merged := MergePanels(panels, nil)
		require.Len(t, merged, 3)
		assert.Equal(t, defined(0.3), merged[0].PLarge)
		assert.Equal(t, defined(0.3), merged[1].PLarge)
		assert.Equal(t, defined(0.1), merged[2].PLarge)
	})

	t.Run("leading undefined values stay undefined", func(t *testing.T) {
		panels := map[Segment][]PanelRow{
			SegmentSmall: {
				panelRow(SegmentSmall, 1, sql.NullFloat64{}),
				panelRow(SegmentSmall, 2, defined(0.2)),
			},
		}
		merged := MergePanels(panels, nil)
		require.Len(t, merged, 2)
		assert.False(t, merged[0].PSmall.Valid)
		assert.True(t, merged[1].PSmall.Valid)
	})

	t.Run("empty inputs yield no rows", func(t *testing.T) {
		assert.Nil(t, MergePanels(nil, nil))
		assert.Nil(t, MergePanels(map[Segment][]PanelRow{}, nil))
	})

	t.Run("price only market still merges", func(t *testing.T) {
		merged := MergePanels(nil, []DayPrice{{Day: 1, Price: 0.5}})
		require.Len(t, merged, 1)
		assert.Equal(t, defined(0.5), merged[0].PMarket)
		assert.False(t, merged[0].PWhale.Valid)
	})
}
