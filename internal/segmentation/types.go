package segmentation

import (
	"database/sql"
	"fmt"
	"strings"
)

// Segment represents a trade-size cohort
type Segment int

const (
	// SegmentSmall holds trades below the 33rd percentile of non-whale sizes
	SegmentSmall Segment = iota
	// SegmentMedium holds trades between the 33rd and 66th percentiles
	SegmentMedium
	// SegmentLarge holds trades at or above the 66th percentile
	SegmentLarge
	// SegmentWhale holds trades at or above mean + 2*stddev of all sizes
	SegmentWhale
)

// Segments lists all cohorts in ascending size order
func Segments() []Segment {
	return []Segment{SegmentSmall, SegmentMedium, SegmentLarge, SegmentWhale}
}

// String returns the display name of the segment
func (s Segment) String() string {
	switch s {
	case SegmentSmall:
		return "Small"
	case SegmentMedium:
		return "Medium"
	case SegmentLarge:
		return "Large"
	case SegmentWhale:
		return "Whale"
	default:
		return "unknown"
	}
}

// Key returns the lowercase identifier used in file names and column names
func (s Segment) Key() string {
	return strings.ToLower(s.String())
}

// Side represents the direction of a trade
type Side int

const (
	// SideBuy adds to the trader's position
	SideBuy Side = iota
	// SideSell reduces the trader's position
	SideSell
)

// String returns the display name of the side
func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// ParseSide parses a side value case-insensitively
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("unrecognized side %q", raw)
	}
}

// Outcome represents the outcome leg a trade was placed on
type Outcome int

const (
	// OutcomeYes is the Yes leg of a binary market
	OutcomeYes Outcome = iota
	// OutcomeNo is the No leg of a binary market
	OutcomeNo
)

// String returns the display name of the outcome
func (o Outcome) String() string {
	if o == OutcomeNo {
		return "No"
	}
	return "Yes"
}

// ParseOutcome parses an outcome value case-insensitively
func ParseOutcome(raw string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "YES":
		return OutcomeYes, nil
	case "NO":
		return OutcomeNo, nil
	default:
		return 0, fmt.Errorf("unrecognized outcome %q", raw)
	}
}

// Trade represents a single raw trade for one market.
// Segment and Day are derived fields populated by the pipeline; the
// loaded fields are never mutated after parsing.
type Trade struct {
	Wallet    string  `json:"wallet"`
	Side      Side    `json:"side"`
	Size      float64 `json:"size"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // Unix seconds
	Outcome   Outcome `json:"outcome"`
	MarketID  string  `json:"market_id"`

	// Derived fields
	Segment Segment `json:"segment"`
	Day     int     `json:"day"` // 1-based day index within the market
}

// Thresholds contains the per-market segmentation cut points.
// Whale is +Inf when the distribution is degenerate. Q33 and Q66 are
// meaningless when Degenerate or AllWhales is set; Assign never
// consults them in those cases.
type Thresholds struct {
	Whale float64 `json:"whale_threshold"`
	Q33   float64 `json:"q33"`
	Q66   float64 `json:"q66"`

	// Degenerate is set when fewer than 4 sizes were observed or all
	// sizes were numerically identical; every trade is then Small.
	Degenerate bool `json:"degenerate"`
	// AllWhales is set when every size sits at or above Whale, leaving
	// no non-whale subset to derive percentiles from.
	AllWhales bool `json:"all_whales"`
}

// PanelRow is one day of the per-segment daily panel for a market.
// HY and HN are running cumulative net positions (buys minus sells)
// for the Yes and No legs. P is undefined (Valid=false) exactly when
// |HY|+|HN| is zero; undefined is never coerced to zero.
type PanelRow struct {
	Segment  Segment         `json:"segment"`
	MarketID string          `json:"market_id"`
	Day      int             `json:"day"`
	HY       float64         `json:"h_y"`
	HN       float64         `json:"h_n"`
	P        sql.NullFloat64 `json:"p_segment"`
}

// PricePoint is one raw observation from a market's official price series
type PricePoint struct {
	Timestamp int64   `json:"timestamp"` // Unix seconds
	Price     float64 `json:"price"`
}

// DayPrice is a price observation reduced to the shared day coordinate
type DayPrice struct {
	Day   int     `json:"day"`
	Price float64 `json:"price"`
}

// MergedRow is one day of the merged multi-cohort panel. Each column is
// forward-filled independently from its own series; a column with no
// prior observation stays undefined.
type MergedRow struct {
	Day     int             `json:"day"`
	PWhale  sql.NullFloat64 `json:"p_whale"`
	PLarge  sql.NullFloat64 `json:"p_large"`
	PMedium sql.NullFloat64 `json:"p_medium"`
	PSmall  sql.NullFloat64 `json:"p_small"`
	PMarket sql.NullFloat64 `json:"p_market"`
}

// SegmentColumn returns the cohort column for the given segment
func (m MergedRow) SegmentColumn(s Segment) sql.NullFloat64 {
	switch s {
	case SegmentWhale:
		return m.PWhale
	case SegmentLarge:
		return m.PLarge
	case SegmentMedium:
		return m.PMedium
	default:
		return m.PSmall
	}
}
