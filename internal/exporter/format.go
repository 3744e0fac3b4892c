package exporter

import (
	"database/sql"
	"math"
	"strconv"
)

// formatFloat formats a float64 for CSV output. Non-finite values
// become empty cells.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatNullFloat writes undefined values as empty cells, never as 0
func formatNullFloat(f sql.NullFloat64) string {
	if !f.Valid {
		return ""
	}
	return formatFloat(f.Float64)
}

// formatInt formats an int for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
