package pipeline

import (
	"context"
	"fmt"

	"polyseg/internal/dataprocessing"
	"polyseg/internal/errors"
	"polyseg/internal/infrastructure"
	"polyseg/internal/segmentation"
)

// marketResult is the per-market contribution to a run. It carries no
// shared state so markets can be processed concurrently and reduced in
// any order.
type marketResult struct {
	Summary     dataprocessing.MarketSummary
	PanelStats  dataprocessing.PanelStats
	WalletStats dataprocessing.WalletStats

	// EmptyCohorts holds one EmptyPanelError per cohort that produced
	// no panel. The condition is informational, not a failure.
	EmptyCohorts []error
}

// processMarket runs the full per-market chain: parse, segment, index
// days, accumulate the cohort panels, merge with the official price
// series and export every artifact.
func (p *Pipeline) processMarket(ctx context.Context, unit marketUnit) (*marketResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	marketID := dataprocessing.MarketID(unit.tradePath)
	logger := p.logger.With("event", unit.event, "market_id", marketID)

	trades, meta, err := p.parser.ParseTrades(unit.tradePath)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("market %s: no parseable trades", marketID)
	}

	thresholds := segmentation.AssignAll(trades)
	if thresholds.Degenerate {
		logger.InfoContext(ctx, "degenerate size distribution, all trades classed Small",
			"trades", len(trades))
	}

	indexer, err := segmentation.IndexTrades(trades)
	if err != nil {
		return nil, fmt.Errorf("market %s: %w", marketID, err)
	}

	result := &marketResult{PanelStats: dataprocessing.NewPanelStats()}
	panels := make(map[segmentation.Segment][]segmentation.PanelRow)
	for _, segment := range segmentation.Segments() {
		panel := segmentation.BuildDailyPanel(trades, segment, marketID)
		panels[segment] = panel
		result.PanelStats.Observe(panel)
		if len(panel) == 0 {
			emptyErr := &errors.EmptyPanelError{MarketID: marketID, Segment: segment.Key()}
			result.EmptyCohorts = append(result.EmptyCohorts, emptyErr)
			logger.DebugContext(ctx, "cohort has no trades", "segment", segment.Key())
		}

		if err := p.panels.WriteSegmentTrades(
			p.paths.SegmentCSVPath(unit.event, marketID, segment), segment, trades); err != nil {
			return nil, err
		}
		if err := p.panels.WriteDailyPanel(
			p.paths.PanelCSVPath(unit.event, marketID, segment), panel); err != nil {
			return nil, err
		}
	}

	prices := p.loadPrices(ctx, unit.event, marketID, indexer)
	merged := segmentation.MergePanels(panels, prices)
	if err := p.panels.WriteMergedPanel(
		p.paths.MergedPanelCSVPath(unit.event, marketID), merged); err != nil {
		return nil, err
	}

	result.Summary = dataprocessing.BuildMarketSummary(unit.event, marketID, meta, trades, thresholds)
	result.WalletStats = dataprocessing.AnalyzeWalletPositions(trades)

	if p.store != nil {
		if err := p.store.SaveMarketResult(infrastructure.GetRunID(ctx), result.Summary, merged); err != nil {
			return nil, err
		}
	}

	logger.InfoContext(ctx, "processed market",
		"trades", len(trades),
		"days", len(merged),
		"price_points", len(prices))
	return result, nil
}

// loadPrices resolves the official price series for a market. A missing
// or unreadable series is not an error; the merged panel simply has an
// undefined market column.
func (p *Pipeline) loadPrices(ctx context.Context, event, marketID string, indexer *segmentation.DayIndexer) []segmentation.DayPrice {
	slug := dataprocessing.MarketSlug(marketID)
	path, ok := dataprocessing.FindPriceFile(p.paths.EventPricesDir(event), slug)
	if !ok {
		p.logger.DebugContext(ctx, "no price series found", "event", event, "market_id", marketID)
		return nil
	}

	points, err := p.parser.LoadPriceSeries(path)
	if err != nil {
		p.logger.WarnContext(ctx, "price series unreadable, continuing without it",
			"event", event, "market_id", marketID, "error", err)
		return nil
	}
	return segmentation.ReducePriceSeries(points, indexer)
}
