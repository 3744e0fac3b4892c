package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"polyseg/internal/config"
	"polyseg/internal/dataprocessing"
	"polyseg/internal/exporter"
	"polyseg/internal/infrastructure"
	"polyseg/internal/segmentation"
)

// flowreport scans the daily panels of a previous segmenter run and
// reports how often the implied probability went negative or was
// undefined, without reparsing the raw trades.
func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml in the working directory)")
	outDir := flag.String("out", "", "output directory of a previous run (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		logger.Error("Failed to create report directory", "error", err)
		os.Exit(1)
	}

	panelFiles, err := filepath.Glob(filepath.Join(paths.OutputDir, "*", "*", "*_daily_panel.csv"))
	if err != nil {
		logger.Error("Failed to scan output directory", "error", err)
		os.Exit(1)
	}
	if len(panelFiles) == 0 {
		logger.Error("No daily panels found", "output_dir", paths.OutputDir)
		os.Exit(1)
	}
	sort.Strings(panelFiles)

	stats := dataprocessing.NewPanelStats()
	unreadable := 0
	for _, path := range panelFiles {
		rows, err := dataprocessing.LoadDailyPanel(path)
		if err != nil {
			unreadable++
			logger.Warn("Skipping unreadable panel", "path", path, "error", err)
			continue
		}
		stats.Observe(rows)
	}
	if stats.Panels == 0 {
		logger.Error("No readable daily panels", "scanned", len(panelFiles))
		os.Exit(1)
	}

	writer := exporter.NewSummaryExporter(exporter.NewCSVWriter(paths))
	if err := writer.WriteFlowReport(paths.FlowReportPath(), stats, dataprocessing.WalletStats{}); err != nil {
		logger.Error("Failed to write flow report", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Scanned %d panels (%d unreadable) across %d rows\n",
		stats.Panels, unreadable, stats.Rows)
	fmt.Printf("Negative p rows: %d  Undefined p rows: %d\n", stats.NegativeP, stats.UndefinedP)
	for _, segment := range segmentation.Segments() {
		if count := stats.NegativeBySegment[segment]; count > 0 {
			fmt.Printf("  %s panels with negative p: %d\n", segment, count)
		}
	}
	fmt.Printf("Report: %s\n", paths.FlowReportPath())
}
