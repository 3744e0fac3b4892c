package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"polyseg/internal/segmentation"
)

// FindPriceFile locates the official price CSV for a market inside an
// event's prices directory. It tries <slug>_price.csv, then
// <slug>.csv, then any CSV whose name contains the slug.
func FindPriceFile(pricesDir, marketSlug string) (string, bool) {
	if info, err := os.Stat(pricesDir); err != nil || !info.IsDir() {
		return "", false
	}

	exact := filepath.Join(pricesDir, marketSlug+"_price.csv")
	if fileExists(exact) {
		return exact, true
	}
	bare := filepath.Join(pricesDir, marketSlug+".csv")
	if fileExists(bare) {
		return bare, true
	}

	matches, err := filepath.Glob(filepath.Join(pricesDir, "*"+marketSlug+"*"))
	if err != nil {
		return "", false
	}
	for _, match := range matches {
		if strings.EqualFold(filepath.Ext(match), ".csv") && fileExists(match) {
			return match, true
		}
	}
	return "", false
}

// LoadPriceSeries reads a (timestamp, price) CSV into raw price
// points. Rows with unparseable values are skipped.
func (p *Parser) LoadPriceSeries(path string) ([]segmentation.PricePoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	columns := indexHeader(header)

	timestampIdx, ok := resolveColumn(columns, []string{p.timestampColumn})
	if !ok {
		return nil, fmt.Errorf("price file %s has no %q column", path, p.timestampColumn)
	}
	priceIdx, ok := resolveColumn(columns, []string{"price"})
	if !ok {
		return nil, fmt.Errorf("price file %s has no price column", path)
	}

	var points []segmentation.PricePoint
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		timestamp, err := parseTimestampField(record, timestampIdx)
		if err != nil {
			skipped++
			continue
		}
		price, err := parseFloatField(record, priceIdx)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, segmentation.PricePoint{Timestamp: timestamp, Price: price})
	}

	if skipped > 0 {
		p.logger.Warn("skipped unparseable price rows", "file", path, "skipped", skipped)
	}
	return points, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
