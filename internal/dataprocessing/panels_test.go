package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyseg/internal/segmentation"
)

func TestLoadDailyPanel(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "whale_daily_panel.csv", `segment,market_id,day,H_Y,H_N,p_segment
whale,rain_trades,1,30,-10,0.75
whale,rain_trades,2,0,0,
whale,rain_trades,3,-5,15,-0.25
`)

	rows, err := LoadDailyPanel(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, segmentation.SegmentWhale, rows[0].Segment)
	assert.Equal(t, "rain_trades", rows[0].MarketID)
	assert.Equal(t, 1, rows[0].Day)
	assert.Equal(t, 30.0, rows[0].HY)
	assert.Equal(t, -10.0, rows[0].HN)
	require.True(t, rows[0].P.Valid)
	assert.Equal(t, 0.75, rows[0].P.Float64)

	// Blank probability reads back as undefined, not zero.
	assert.False(t, rows[1].P.Valid)

	require.True(t, rows[2].P.Valid)
	assert.Equal(t, -0.25, rows[2].P.Float64)
}

func TestLoadDailyPanelStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bom_daily_panel.csv",
		"\uFEFFsegment,market_id,day,H_Y,H_N,p_segment\nwhale,m,1,30,-10,0.75\n")

	rows, err := LoadDailyPanel(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, segmentation.SegmentWhale, rows[0].Segment)
}

func TestLoadDailyPanelErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing column", func(t *testing.T) {
		path := writeCSV(t, dir, "short.csv", "segment,day\nwhale,1\n")
		_, err := LoadDailyPanel(path)
		assert.ErrorContains(t, err, "missing column")
	})

	t.Run("unknown segment", func(t *testing.T) {
		path := writeCSV(t, dir, "badseg.csv", `segment,market_id,day,H_Y,H_N,p_segment
kraken,m,1,0,0,
`)
		_, err := LoadDailyPanel(path)
		assert.ErrorContains(t, err, "unknown segment")
	})

	t.Run("bad day", func(t *testing.T) {
		path := writeCSV(t, dir, "badday.csv", `segment,market_id,day,H_Y,H_N,p_segment
whale,m,one,0,0,
`)
		_, err := LoadDailyPanel(path)
		assert.ErrorContains(t, err, "invalid day")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDailyPanel(dir + "/absent.csv")
		assert.Error(t, err)
	})
}
