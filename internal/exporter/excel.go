package exporter

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"polyseg/internal/dataprocessing"
	"polyseg/internal/segmentation"
)

const summarySheet = "Markets"

// ExcelWriter renders the market summary as an xlsx workbook for
// readers who want the overview without loading the CSVs.
type ExcelWriter struct{}

// NewExcelWriter creates an Excel writer
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// WriteSummaryWorkbook writes one sheet with one row per market
func (w *ExcelWriter) WriteSummaryWorkbook(path string, summaries []dataprocessing.MarketSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, header := range summaryHeaders() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("resolve header cell: %w", err)
		}
		if err := f.SetCellValue(summarySheet, cell, header); err != nil {
			return fmt.Errorf("write header %s: %w", header, err)
		}
	}

	sorted := make([]dataprocessing.MarketSummary, len(summaries))
	copy(sorted, summaries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EventName != sorted[j].EventName {
			return sorted[i].EventName < sorted[j].EventName
		}
		return sorted[i].MarketID < sorted[j].MarketID
	})

	for rowIdx, summary := range sorted {
		values := []interface{}{
			summary.MarketID,
			summary.EventName,
			summary.EventSlug,
			summary.MarketSlug,
			summary.MarketTitle,
			summary.TotalTrades,
		}
		for _, segment := range segmentation.Segments() {
			values = append(values,
				summary.Counts[segment],
				summary.Volumes[segment],
				nullCell(summary.VolumeShares[segment].Float64, summary.VolumeShares[segment].Valid),
				nullCell(summary.MaxSizes[segment].Float64, summary.MaxSizes[segment].Valid),
			)
		}
		values = append(values, infCell(summary.WhaleThreshold), summary.Degenerate)

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return fmt.Errorf("resolve cell: %w", err)
			}
			if err := f.SetCellValue(summarySheet, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// nullCell maps undefined values to empty cells
func nullCell(value float64, valid bool) interface{} {
	if !valid {
		return ""
	}
	return value
}

// infCell maps the degenerate +Inf threshold to a readable marker,
// xlsx has no representation for infinities.
func infCell(value float64) interface{} {
	if math.IsInf(value, 1) {
		return "inf"
	}
	return value
}
