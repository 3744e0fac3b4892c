package segmentation

import (
	"database/sql"
	"sort"
)

// ReducePriceSeries maps raw price observations through the market's
// day indexer and keeps the last observed price for each day. Points
// that fall before the first trade date (day < 1) are dropped so the
// reduced series stays within the shared day coordinate.
func ReducePriceSeries(points []PricePoint, indexer *DayIndexer) []DayPrice {
	if indexer == nil || len(points) == 0 {
		return nil
	}

	ordered := make([]PricePoint, len(points))
	copy(ordered, points)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	lastByDay := make(map[int]float64)
	for _, pt := range ordered {
		day := indexer.DayOf(pt.Timestamp)
		if day < 1 {
			continue
		}
		lastByDay[day] = pt.Price
	}
	if len(lastByDay) == 0 {
		return nil
	}

	reduced := make([]DayPrice, 0, len(lastByDay))
	for day, price := range lastByDay {
		reduced = append(reduced, DayPrice{Day: day, Price: price})
	}
	sort.Slice(reduced, func(i, j int) bool { return reduced[i].Day < reduced[j].Day })
	return reduced
}

// MergePanels outer-joins the available cohort panels and the reduced
// price series on the day index. The output contains one row per
// distinct day in the union, sorted ascending, with every column
// forward-filled independently from its own most recent value. A
// column with no prior observation at a day stays undefined; values
// are never cross-filled between columns. Absent cohorts contribute no
// rows and leave their column undefined throughout.
func MergePanels(panels map[Segment][]PanelRow, prices []DayPrice) []MergedRow {
	daySet := make(map[int]struct{})
	cohortByDay := make(map[Segment]map[int]sql.NullFloat64, len(panels))

	for segment, rows := range panels {
		byDay := make(map[int]sql.NullFloat64, len(rows))
		for _, row := range rows {
			byDay[row.Day] = row.P
			daySet[row.Day] = struct{}{}
		}
		cohortByDay[segment] = byDay
	}

	priceByDay := make(map[int]float64, len(prices))
	for _, dp := range prices {
		priceByDay[dp.Day] = dp.Price
		daySet[dp.Day] = struct{}{}
	}

	if len(daySet) == 0 {
		return nil
	}

	days := make([]int, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Ints(days)

	fills := make(map[Segment]sql.NullFloat64, len(Segments()))
	var marketFill sql.NullFloat64

	merged := make([]MergedRow, 0, len(days))
	for _, day := range days {
		for _, segment := range Segments() {
			byDay, ok := cohortByDay[segment]
			if !ok {
				continue
			}
			// An undefined p carries no new information; the column
			// keeps its most recent defined value.
			if p, present := byDay[day]; present && p.Valid {
				fills[segment] = p
			}
		}
		if price, present := priceByDay[day]; present {
			marketFill = sql.NullFloat64{Float64: price, Valid: true}
		}

		merged = append(merged, MergedRow{
			Day:     day,
			PWhale:  fills[SegmentWhale],
			PLarge:  fills[SegmentLarge],
			PMedium: fills[SegmentMedium],
			PSmall:  fills[SegmentSmall],
			PMarket: marketFill,
		})
	}
	return merged
}
