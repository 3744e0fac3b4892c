package config

import (
	"fmt"
	"os"
	"path/filepath"

	"polyseg/internal/segmentation"
)

// Paths is the single source of truth for the on-disk layout of a run.
//
// Input layout (one event directory per event, one CSV per market):
//
//	raw/
//	  <event>/
//	    trades/<market>.csv
//	    prices/<market>_price.csv
//
// Output layout mirrors the input:
//
//	output/
//	  <event>/
//	    <market>/
//	      small.csv ... whale.csv
//	      small_daily_panel.csv ... whale_daily_panel.csv
//	      merged_panel.csv
//	  market_summary.csv
type Paths struct {
	RawDir     string
	OutputDir  string
	ReportsDir string
	LogsDir    string
}

// NewPaths resolves the configured directories to absolute paths
func NewPaths(cfg PathsConfig) (*Paths, error) {
	p := &Paths{}
	for dst, src := range map[*string]string{
		&p.RawDir:     cfg.RawDir,
		&p.OutputDir:  cfg.OutputDir,
		&p.ReportsDir: cfg.ReportsDir,
		&p.LogsDir:    cfg.LogsDir,
	} {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", src, err)
		}
		*dst = abs
	}
	return p, nil
}

// EnsureDirectories creates the writable directories if needed
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// EventTradesDir returns the trades directory of a raw event
func (p *Paths) EventTradesDir(event string) string {
	return filepath.Join(p.RawDir, event, "trades")
}

// EventPricesDir returns the prices directory of a raw event
func (p *Paths) EventPricesDir(event string) string {
	return filepath.Join(p.RawDir, event, "prices")
}

// MarketOutputDir returns the output directory for one market
func (p *Paths) MarketOutputDir(event, marketID string) string {
	return filepath.Join(p.OutputDir, event, marketID)
}

// SegmentCSVPath returns the segmented-trades file for one cohort
func (p *Paths) SegmentCSVPath(event, marketID string, s segmentation.Segment) string {
	return filepath.Join(p.MarketOutputDir(event, marketID), s.Key()+".csv")
}

// PanelCSVPath returns the daily-panel file for one cohort
func (p *Paths) PanelCSVPath(event, marketID string, s segmentation.Segment) string {
	return filepath.Join(p.MarketOutputDir(event, marketID), s.Key()+"_daily_panel.csv")
}

// MergedPanelCSVPath returns the merged multi-cohort panel file
func (p *Paths) MergedPanelCSVPath(event, marketID string) string {
	return filepath.Join(p.MarketOutputDir(event, marketID), "merged_panel.csv")
}

// SummaryCSVPath returns the cross-market summary file
func (p *Paths) SummaryCSVPath() string {
	return filepath.Join(p.OutputDir, "market_summary.csv")
}

// SummaryWorkbookPath returns the Excel summary workbook
func (p *Paths) SummaryWorkbookPath() string {
	return filepath.Join(p.ReportsDir, "market_summary.xlsx")
}

// FlowReportPath returns the flow analytics report file
func (p *Paths) FlowReportPath() string {
	return filepath.Join(p.ReportsDir, "flow_report.csv")
}

// LogPath returns a file path inside the logs directory
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks whether a path exists and is not a directory
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
