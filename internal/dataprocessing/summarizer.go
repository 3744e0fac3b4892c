package dataprocessing

import (
	"database/sql"

	"polyseg/internal/segmentation"
)

// MarketSummary is the single source of truth row describing one
// processed market: per-cohort trade counts, volumes, volume shares,
// the largest trade per cohort and the whale threshold in force.
type MarketSummary struct {
	MarketID    string `json:"market_id"`
	EventName   string `json:"event_name"`
	EventSlug   string `json:"event_slug"`
	MarketSlug  string `json:"market_slug"`
	MarketTitle string `json:"market_title"`

	TotalTrades int                              `json:"total_trades"`
	Counts      map[segmentation.Segment]int     `json:"-"`
	Volumes     map[segmentation.Segment]float64 `json:"-"`

	// VolumeShares are undefined when total volume is zero.
	VolumeShares map[segmentation.Segment]sql.NullFloat64 `json:"-"`
	// MaxSizes are undefined for cohorts with no trades.
	MaxSizes map[segmentation.Segment]sql.NullFloat64 `json:"-"`

	// WhaleThreshold is +Inf for degenerate markets.
	WhaleThreshold float64 `json:"whale_threshold"`
	Degenerate     bool    `json:"degenerate"`
}

// BuildMarketSummary aggregates one market's segmented trades into a
// summary row. Metadata fields fall back to the market identifier when
// the source carried none.
func BuildMarketSummary(event, marketID string, meta MarketMeta, trades []segmentation.Trade, thresholds segmentation.Thresholds) MarketSummary {
	summary := MarketSummary{
		MarketID:       marketID,
		EventName:      event,
		EventSlug:      meta.EventSlug,
		MarketSlug:     meta.Slug,
		MarketTitle:    meta.Title,
		TotalTrades:    len(trades),
		Counts:         make(map[segmentation.Segment]int),
		Volumes:        make(map[segmentation.Segment]float64),
		VolumeShares:   make(map[segmentation.Segment]sql.NullFloat64),
		MaxSizes:       make(map[segmentation.Segment]sql.NullFloat64),
		WhaleThreshold: thresholds.Whale,
		Degenerate:     thresholds.Degenerate,
	}
	if summary.EventSlug == "" {
		summary.EventSlug = event
	}
	if summary.MarketSlug == "" {
		summary.MarketSlug = marketID
	}
	if summary.MarketTitle == "" {
		summary.MarketTitle = summary.MarketSlug
	}

	var totalVolume float64
	for _, trade := range trades {
		summary.Counts[trade.Segment]++
		summary.Volumes[trade.Segment] += trade.Size
		totalVolume += trade.Size

		if current, ok := summary.MaxSizes[trade.Segment]; !ok || trade.Size > current.Float64 {
			summary.MaxSizes[trade.Segment] = sql.NullFloat64{Float64: trade.Size, Valid: true}
		}
	}

	if totalVolume > 0 {
		for _, segment := range segmentation.Segments() {
			summary.VolumeShares[segment] = sql.NullFloat64{
				Float64: summary.Volumes[segment] / totalVolume,
				Valid:   true,
			}
		}
	}
	return summary
}
