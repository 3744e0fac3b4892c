package exporter

import (
	"fmt"
	"strconv"

	"polyseg/internal/segmentation"
)

var (
	segmentTradeHeaders = []string{"market_id", "day", "timestamp", "wallet", "side", "outcome", "size", "price", "segment"}
	dailyPanelHeaders   = []string{"segment", "market_id", "day", "H_Y", "H_N", "p_segment"}
	mergedPanelHeaders  = []string{"day", "p_whale", "p_large", "p_medium", "p_small", "p_market"}
)

// PanelExporter writes the per-market artifacts: one trade file and one
// daily panel per cohort plus the merged panel.
type PanelExporter struct {
	writer *CSVWriter
}

// NewPanelExporter creates a panel exporter on top of a CSV writer
func NewPanelExporter(writer *CSVWriter) *PanelExporter {
	return &PanelExporter{writer: writer}
}

// WriteSegmentTrades streams the trades of one cohort to its own file;
// cohort files can run to millions of rows so they are not buffered.
// A cohort with no trades still gets a header-only file so readers can
// tell an empty cohort from a missing run.
func (e *PanelExporter) WriteSegmentTrades(path string, segment segmentation.Segment, trades []segmentation.Trade) error {
	stream, err := e.writer.CreateStreamWriter(path, segmentTradeHeaders)
	if err != nil {
		return fmt.Errorf("write segment trades %s: %w", path, err)
	}
	for _, trade := range trades {
		if trade.Segment != segment {
			continue
		}
		record := []string{
			trade.MarketID,
			formatInt(trade.Day),
			strconv.FormatInt(trade.Timestamp, 10),
			trade.Wallet,
			trade.Side.String(),
			trade.Outcome.String(),
			formatFloat(trade.Size),
			formatFloat(trade.Price),
			trade.Segment.Key(),
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("write segment trades %s: %w", path, err)
		}
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("write segment trades %s: %w", path, err)
	}
	return nil
}

// WriteDailyPanel writes one cohort's daily panel
func (e *PanelExporter) WriteDailyPanel(path string, rows []segmentation.PanelRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.Segment.Key(),
			row.MarketID,
			formatInt(row.Day),
			formatFloat(row.HY),
			formatFloat(row.HN),
			formatNullFloat(row.P),
		})
	}
	if err := e.writer.WriteSimpleCSV(path, dailyPanelHeaders, records); err != nil {
		return fmt.Errorf("write daily panel %s: %w", path, err)
	}
	return nil
}

// WriteMergedPanel writes the merged multi-cohort panel
func (e *PanelExporter) WriteMergedPanel(path string, rows []segmentation.MergedRow) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			formatInt(row.Day),
			formatNullFloat(row.PWhale),
			formatNullFloat(row.PLarge),
			formatNullFloat(row.PMedium),
			formatNullFloat(row.PSmall),
			formatNullFloat(row.PMarket),
		})
	}
	if err := e.writer.WriteSimpleCSV(path, mergedPanelHeaders, records); err != nil {
		return fmt.Errorf("write merged panel %s: %w", path, err)
	}
	return nil
}
