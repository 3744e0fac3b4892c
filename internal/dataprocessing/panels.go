package dataprocessing

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"polyseg/internal/segmentation"
)

// LoadDailyPanel reads a previously exported daily panel CSV back into
// memory. Rows with a blank probability column come back as undefined.
func LoadDailyPanel(path string) ([]segmentation.PanelRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read panel header: %w", err)
	}
	columns := indexHeader(header)

	required := []string{"segment", "market_id", "day", "h_y", "h_n", "p_segment"}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("panel file %s: missing column %q", path, name)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read panel rows: %w", err)
	}

	rows := make([]segmentation.PanelRow, 0, len(records))
	for i, record := range records {
		segment, err := parseSegment(fieldAt(record, columns["segment"]))
		if err != nil {
			return nil, fmt.Errorf("panel file %s row %d: %w", path, i+2, err)
		}
		day, err := strconv.Atoi(strings.TrimSpace(fieldAt(record, columns["day"])))
		if err != nil {
			return nil, fmt.Errorf("panel file %s row %d: invalid day: %w", path, i+2, err)
		}
		hy, err := strconv.ParseFloat(strings.TrimSpace(fieldAt(record, columns["h_y"])), 64)
		if err != nil {
			return nil, fmt.Errorf("panel file %s row %d: invalid H_Y: %w", path, i+2, err)
		}
		hn, err := strconv.ParseFloat(strings.TrimSpace(fieldAt(record, columns["h_n"])), 64)
		if err != nil {
			return nil, fmt.Errorf("panel file %s row %d: invalid H_N: %w", path, i+2, err)
		}

		p := sql.NullFloat64{}
		if raw := strings.TrimSpace(fieldAt(record, columns["p_segment"])); raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("panel file %s row %d: invalid p_segment: %w", path, i+2, err)
			}
			p = sql.NullFloat64{Float64: value, Valid: true}
		}

		rows = append(rows, segmentation.PanelRow{
			Segment:  segment,
			MarketID: fieldAt(record, columns["market_id"]),
			Day:      day,
			HY:       hy,
			HN:       hn,
			P:        p,
		})
	}
	return rows, nil
}

func parseSegment(raw string) (segmentation.Segment, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, segment := range segmentation.Segments() {
		if segment.Key() == key {
			return segment, nil
		}
	}
	return 0, fmt.Errorf("unknown segment %q", raw)
}
