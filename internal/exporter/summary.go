package exporter

import (
	"fmt"
	"sort"

	"polyseg/internal/dataprocessing"
	"polyseg/internal/segmentation"
)

// summaryHeaders is the column layout of market_summary.csv. The four
// per-cohort column groups are emitted in ascending cohort order.
func summaryHeaders() []string {
	headers := []string{"market_id", "event_name", "event_slug", "market_slug", "market_title", "total_trades"}
	for _, segment := range segmentation.Segments() {
		key := segment.Key()
		headers = append(headers,
			key+"_count", key+"_volume", key+"_volume_share", key+"_max_size")
	}
	return append(headers, "whale_threshold", "degenerate")
}

// SummaryExporter writes the cross-market summary and the flow report
type SummaryExporter struct {
	writer *CSVWriter
}

// NewSummaryExporter creates a summary exporter on top of a CSV writer
func NewSummaryExporter(writer *CSVWriter) *SummaryExporter {
	return &SummaryExporter{writer: writer}
}

// WriteMarketSummaries writes one row per processed market, sorted by
// event then market so reruns produce identical files.
func (e *SummaryExporter) WriteMarketSummaries(path string, summaries []dataprocessing.MarketSummary) error {
	sorted := make([]dataprocessing.MarketSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EventName != sorted[j].EventName {
			return sorted[i].EventName < sorted[j].EventName
		}
		return sorted[i].MarketID < sorted[j].MarketID
	})

	records := make([][]string, 0, len(sorted))
	for _, summary := range sorted {
		record := []string{
			summary.MarketID,
			summary.EventName,
			summary.EventSlug,
			summary.MarketSlug,
			summary.MarketTitle,
			formatInt(summary.TotalTrades),
		}
		for _, segment := range segmentation.Segments() {
			record = append(record,
				formatInt(summary.Counts[segment]),
				formatFloat(summary.Volumes[segment]),
				formatNullFloat(summary.VolumeShares[segment]),
				formatNullFloat(summary.MaxSizes[segment]),
			)
		}
		record = append(record,
			formatFloat(summary.WhaleThreshold),
			formatBool(summary.Degenerate),
		)
		records = append(records, record)
	}

	if err := e.writer.WriteSimpleCSV(path, summaryHeaders(), records); err != nil {
		return fmt.Errorf("write market summaries %s: %w", path, err)
	}
	return nil
}

// WriteFlowReport writes the panel-quality and wallet-position report
func (e *SummaryExporter) WriteFlowReport(path string, panels dataprocessing.PanelStats, wallets dataprocessing.WalletStats) error {
	records := [][]string{
		{"panels", formatInt(panels.Panels), ""},
		{"panel_rows", formatInt(panels.Rows), ""},
		{"negative_p_rows", formatInt(panels.NegativeP), ""},
		{"undefined_p_rows", formatInt(panels.UndefinedP), ""},
		{"markets_with_negative_p", formatInt(len(panels.MarketsWithNegative)), ""},
	}
	for _, segment := range segmentation.Segments() {
		records = append(records, []string{
			"negative_panels_" + segment.Key(),
			formatInt(panels.NegativeBySegment[segment]),
			"",
		})
	}
	records = append(records,
		[]string{"markets_analyzed", formatInt(wallets.Markets), ""},
		[]string{"wallets_seen", formatInt(wallets.Wallets), ""},
		[]string{"excess_sellers", formatInt(wallets.ExcessSellers), ""},
		[]string{"excess_sell_volume", formatFloat(wallets.ExcessVolume), ""},
	)
	for _, example := range wallets.Examples {
		records = append(records, []string{
			"excess_seller_example",
			formatFloat(example.Excess),
			fmt.Sprintf("%s %s buys=%s sells=%s",
				example.MarketID, example.Wallet,
				formatFloat(example.Buys), formatFloat(example.Sells)),
		})
	}

	headers := []string{"metric", "value", "detail"}
	if err := e.writer.WriteSimpleCSV(path, headers, records); err != nil {
		return fmt.Errorf("write flow report %s: %w", path, err)
	}
	return nil
}
