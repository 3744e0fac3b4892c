package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"polyseg/internal/config"
	"polyseg/internal/errors"
	"polyseg/internal/segmentation"
)

// Parser loads raw trade CSV files into typed trade records.
// One file corresponds to one market; the market identifier is the
// file name without its extension.
type Parser struct {
	amountColumns   []string
	timestampColumn string
	logger          *slog.Logger
}

// NewParser creates a parser using the configured column candidates
func NewParser(cfg config.ProcessingConfig, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	amountColumns := cfg.AmountColumns
	if len(amountColumns) == 0 {
		amountColumns = config.Default().Processing.AmountColumns
	}
	timestampColumn := cfg.TimestampColumn
	if timestampColumn == "" {
		timestampColumn = "timestamp"
	}
	return &Parser{
		amountColumns:   amountColumns,
		timestampColumn: timestampColumn,
		logger:          logger,
	}
}

// MarketMeta carries optional descriptive columns found in a trade
// source, used only for summaries.
type MarketMeta struct {
	Slug      string
	EventSlug string
	Title     string
}

// MarketID derives the market identifier from a trade file path
func MarketID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MarketSlug strips the trade-file suffix from a market identifier so
// it matches the naming of the corresponding price file.
func MarketSlug(marketID string) string {
	return strings.TrimSuffix(marketID, "_trades")
}

// ParseTrades reads one market's trade CSV. Required columns (size,
// side, outcome, timestamp) are resolved once from the header; failure
// to resolve any of them returns a MissingFieldError for the market.
// Individual rows with unparseable values are skipped with a warning
// rather than failing the market.
func (p *Parser) ParseTrades(path string) ([]segmentation.Trade, MarketMeta, error) {
	marketID := MarketID(path)
	var meta MarketMeta

	file, err := os.Open(path)
	if err != nil {
		return nil, meta, fmt.Errorf("open trade file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, validated per field below

	header, err := reader.Read()
	if err != nil {
		return nil, meta, fmt.Errorf("read header of %s: %w", path, err)
	}

	columns := indexHeader(header)

	amountIdx, ok := resolveColumn(columns, p.amountColumns)
	if !ok {
		return nil, meta, errors.NewMissingFieldError(marketID, "amount", p.amountColumns)
	}
	sideIdx, ok := resolveColumn(columns, []string{"side"})
	if !ok {
		return nil, meta, errors.NewMissingFieldError(marketID, "side", nil)
	}
	outcomeIdx, ok := resolveColumn(columns, []string{"outcome"})
	if !ok {
		return nil, meta, errors.NewMissingFieldError(marketID, "outcome", nil)
	}
	timestampIdx, ok := resolveColumn(columns, []string{p.timestampColumn})
	if !ok {
		return nil, meta, errors.NewMissingFieldError(marketID, p.timestampColumn, nil)
	}

	// Optional columns.
	walletIdx, hasWallet := resolveColumn(columns, []string{"proxywallet", "wallet", "user"})
	priceIdx, hasPrice := resolveColumn(columns, []string{"price"})
	slugIdx, hasSlug := resolveColumn(columns, []string{"slug"})
	eventSlugIdx, hasEventSlug := resolveColumn(columns, []string{"eventslug"})
	titleIdx, hasTitle := resolveColumn(columns, []string{"title"})

	var trades []segmentation.Trade
	skipped := 0

	for lineNo := 2; ; lineNo++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			p.logger.Warn("skipping malformed CSV row",
				"market_id", marketID, "line", lineNo, "error", err)
			continue
		}

		size, err := parseFloatField(record, amountIdx)
		if err != nil {
			skipped++
			continue
		}
		timestamp, err := parseTimestampField(record, timestampIdx)
		if err != nil {
			skipped++
			continue
		}
		side, err := segmentation.ParseSide(fieldAt(record, sideIdx))
		if err != nil {
			skipped++
			continue
		}
		outcome, err := segmentation.ParseOutcome(fieldAt(record, outcomeIdx))
		if err != nil {
			skipped++
			continue
		}
		if size < 0 {
			skipped++
			continue
		}

		trade := segmentation.Trade{
			MarketID:  marketID,
			Side:      side,
			Outcome:   outcome,
			Size:      size,
			Timestamp: timestamp,
		}
		if hasWallet {
			trade.Wallet = fieldAt(record, walletIdx)
		}
		if hasPrice {
			if price, err := parseFloatField(record, priceIdx); err == nil {
				trade.Price = price
			}
		}

		// Metadata comes from the first row that carries it.
		if hasSlug && meta.Slug == "" {
			meta.Slug = fieldAt(record, slugIdx)
		}
		if hasEventSlug && meta.EventSlug == "" {
			meta.EventSlug = fieldAt(record, eventSlugIdx)
		}
		if hasTitle && meta.Title == "" {
			meta.Title = fieldAt(record, titleIdx)
		}

		trades = append(trades, trade)
	}

	if skipped > 0 {
		p.logger.Warn("skipped unparseable trade rows",
			"market_id", marketID, "skipped", skipped, "loaded", len(trades))
	}
	return trades, meta, nil
}

// indexHeader maps normalized column names to their positions. The
// first cell may carry a UTF-8 BOM (our own exporter writes one for
// Excel); it is stripped before matching.
func indexHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\uFEFF")
		normalized := strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[normalized]; !exists {
			columns[normalized] = i
		}
	}
	return columns
}

// resolveColumn returns the position of the first candidate present
func resolveColumn(columns map[string]int, candidates []string) (int, bool) {
	for _, candidate := range candidates {
		if idx, ok := columns[strings.ToLower(candidate)]; ok {
			return idx, true
		}
	}
	return 0, false
}

func fieldAt(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloatField(record []string, idx int) (float64, error) {
	raw := fieldAt(record, idx)
	if raw == "" {
		return 0, fmt.Errorf("empty field")
	}
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

// parseTimestampField parses a Unix-seconds timestamp, tolerating
// sources that serialize it as a float.
func parseTimestampField(record []string, idx int) (int64, error) {
	raw := fieldAt(record, idx)
	if raw == "" {
		return 0, fmt.Errorf("empty field")
	}
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ts, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
