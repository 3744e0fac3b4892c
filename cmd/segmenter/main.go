package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"polyseg/internal/config"
	"polyseg/internal/infrastructure"
	"polyseg/internal/pipeline"
	"polyseg/internal/store"
)

func main() {
	configFile := flag.String("config", "", "path to config file (defaults to config.yaml in the working directory)")
	rawDir := flag.String("raw", "", "raw event directory (overrides config)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	topEvents := flag.Int("top", 0, "process only the first N events by name (0 = all)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *rawDir != "" {
		cfg.Paths.RawDir = *rawDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *topEvents > 0 {
		cfg.Processing.TopEvents = *topEvents
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		logger.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}

	var st *store.Store
	if cfg.Store.Enabled {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			logger.Error("Failed to open run store", "error", err)
			os.Exit(1)
		}
		defer st.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.New(cfg, paths, logger, st).Run(ctx)
	if err != nil {
		logger.Error("Batch run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Processed %d markets (%d skipped)\n", result.MarketsOK, result.MarketsFailed)
	fmt.Printf("Summary: %s\n", paths.SummaryCSVPath())
	fmt.Printf("Reports: %s\n", paths.ReportsDir)
}
