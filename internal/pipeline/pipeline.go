// Package pipeline orchestrates a batch run over the raw event tree.
//
// Markets are discovered from raw/<event>/trades/*.csv and processed
// independently, bounded by the configured concurrency. A failing
// market is logged and skipped; the run aborts only when no market
// yields a result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"polyseg/internal/config"
	"polyseg/internal/dataprocessing"
	"polyseg/internal/errors"
	"polyseg/internal/exporter"
	"polyseg/internal/infrastructure"
	"polyseg/internal/store"
)

// Pipeline wires the parser, the segmentation stages and the exporters
// into one batch run.
type Pipeline struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger

	parser  *dataprocessing.Parser
	panels  *exporter.PanelExporter
	summary *exporter.SummaryExporter
	excel   *exporter.ExcelWriter
	store   *store.Store
}

// New creates a pipeline from resolved configuration. The store is
// optional and may be nil.
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger, st *store.Store) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	writer := exporter.NewCSVWriter(paths)
	return &Pipeline{
		cfg:     cfg,
		paths:   paths,
		logger:  logger,
		parser:  dataprocessing.NewParser(cfg.Processing, logger),
		panels:  exporter.NewPanelExporter(writer),
		summary: exporter.NewSummaryExporter(writer),
		excel:   exporter.NewExcelWriter(),
		store:   st,
	}
}

// Result aggregates the outcome of one batch run.
type Result struct {
	RunID         string
	MarketsOK     int
	MarketsFailed int
	// EmptyCohorts counts (market, segment) pairs that produced no
	// daily panel because the cohort had no trades.
	EmptyCohorts int
	Summaries    []dataprocessing.MarketSummary
	PanelStats   dataprocessing.PanelStats
	WalletStats  dataprocessing.WalletStats
}

// marketUnit is one discovered (event, trade file) pair
type marketUnit struct {
	event     string
	tradePath string
}

// Run executes the full batch. It returns ErrNoValidMarkets when
// discovery finds nothing or every discovered market fails.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)
	startedAt := time.Now()

	logger := p.logger
	logger.InfoContext(ctx, "starting batch run", "run_id", runID, "raw_dir", p.paths.RawDir)

	units, err := p.discoverMarkets()
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("discover markets in %s: %w", p.paths.RawDir, errors.ErrNoValidMarkets)
	}
	logger.InfoContext(ctx, "discovered markets", "count", len(units))

	if err := p.paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	if p.store != nil {
		if err := p.store.BeginRun(runID, startedAt); err != nil {
			return nil, err
		}
	}

	result := &Result{
		RunID:       runID,
		PanelStats:  dataprocessing.NewPanelStats(),
		WalletStats: dataprocessing.WalletStats{},
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.cfg.Processing.MaxConcurrency)

	for _, unit := range units {
		unit := unit
		group.Go(func() error {
			market, err := p.processMarket(groupCtx, unit)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.MarketsFailed++
				logger.WarnContext(groupCtx, "skipping market",
					"event", unit.event,
					"trade_path", unit.tradePath,
					"error", err)
				return nil
			}
			result.MarketsOK++
			result.Summaries = append(result.Summaries, market.Summary)
			result.PanelStats.Merge(market.PanelStats)
			result.WalletStats.Merge(market.WalletStats)
			for _, cohortErr := range market.EmptyCohorts {
				if errors.IsEmptyPanel(cohortErr) {
					result.EmptyCohorts++
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if result.MarketsOK == 0 {
		return nil, fmt.Errorf("all %d markets failed: %w", result.MarketsFailed, errors.ErrNoValidMarkets)
	}

	if err := p.writeReports(result); err != nil {
		return nil, err
	}
	if p.store != nil {
		if err := p.store.FinishRun(runID, time.Now(), result.MarketsOK, result.MarketsFailed); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "batch run complete",
		"markets_ok", result.MarketsOK,
		"markets_failed", result.MarketsFailed,
		"empty_cohorts", result.EmptyCohorts,
		"duration", time.Since(startedAt).String())
	return result, nil
}

// discoverMarkets walks raw/<event>/trades for CSV files. Events are
// visited in name order; the TopEvents limit truncates that order.
func (p *Pipeline) discoverMarkets() ([]marketUnit, error) {
	entries, err := os.ReadDir(p.paths.RawDir)
	if err != nil {
		return nil, fmt.Errorf("read raw directory %s: %w", p.paths.RawDir, err)
	}

	var events []string
	for _, entry := range entries {
		if entry.IsDir() {
			events = append(events, entry.Name())
		}
	}
	sort.Strings(events)
	if limit := p.cfg.Processing.TopEvents; limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	var units []marketUnit
	for _, event := range events {
		tradesDir := p.paths.EventTradesDir(event)
		files, err := os.ReadDir(tradesDir)
		if err != nil {
			p.logger.Warn("event has no trades directory", "event", event, "error", err)
			continue
		}
		for _, file := range files {
			if file.IsDir() || !strings.EqualFold(filepath.Ext(file.Name()), ".csv") {
				continue
			}
			units = append(units, marketUnit{
				event:     event,
				tradePath: filepath.Join(tradesDir, file.Name()),
			})
		}
	}
	return units, nil
}

// writeReports emits the cross-market artifacts
func (p *Pipeline) writeReports(result *Result) error {
	if err := p.summary.WriteMarketSummaries(p.paths.SummaryCSVPath(), result.Summaries); err != nil {
		return err
	}
	if err := p.excel.WriteSummaryWorkbook(p.paths.SummaryWorkbookPath(), result.Summaries); err != nil {
		return err
	}
	return p.summary.WriteFlowReport(p.paths.FlowReportPath(), result.PanelStats, result.WalletStats)
}
