package dataprocessing

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyseg/internal/config"
	"polyseg/internal/errors"
	"polyseg/internal/segmentation"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(config.Default().Processing, nil)
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMarketIDAndSlug(t *testing.T) {
	assert.Equal(t, "will-it-rain_trades", MarketID("/data/raw/ev/trades/will-it-rain_trades.csv"))
	assert.Equal(t, "will-it-rain", MarketSlug("will-it-rain_trades"))
	assert.Equal(t, "plain", MarketSlug("plain"))
}

func TestParseTrades(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "rain_trades.csv", `proxyWallet,side,outcome,size,price,timestamp,slug,eventSlug,title
0xabc,BUY,Yes,100.5,0.42,1700000000,rain,weather,Will it rain?
0xdef,SELL,No,50,0.58,1700003600,rain,weather,Will it rain?
0xabc,buy,no,"1,250",0.60,1700007200,rain,weather,Will it rain?
`)

	trades, meta, err := newTestParser(t).ParseTrades(path)
	require.NoError(t, err)
	require.Len(t, trades, 3)

	assert.Equal(t, "rain_trades", trades[0].MarketID)
	assert.Equal(t, "0xabc", trades[0].Wallet)
	assert.Equal(t, segmentation.SideBuy, trades[0].Side)
	assert.Equal(t, segmentation.OutcomeYes, trades[0].Outcome)
	assert.Equal(t, 100.5, trades[0].Size)
	assert.Equal(t, 0.42, trades[0].Price)
	assert.Equal(t, int64(1700000000), trades[0].Timestamp)

	assert.Equal(t, segmentation.SideSell, trades[1].Side)
	assert.Equal(t, segmentation.OutcomeNo, trades[1].Outcome)

	// Thousands separators and lowercase enums parse.
	assert.Equal(t, 1250.0, trades[2].Size)
	assert.Equal(t, segmentation.SideBuy, trades[2].Side)

	assert.Equal(t, "rain", meta.Slug)
	assert.Equal(t, "weather", meta.EventSlug)
	assert.Equal(t, "Will it rain?", meta.Title)
}

func TestParseTradesStripsBOM(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m_trades.csv", "\uFEFFsize,side,outcome,timestamp\n10,BUY,Yes,1700000000\n")

	trades, _, err := newTestParser(t).ParseTrades(path)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 10.0, trades[0].Size)
}

func TestParseTradesAmountColumnFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m_trades.csv", `side,outcome,amount,timestamp
BUY,Yes,10,1700000000
`)

	trades, _, err := newTestParser(t).ParseTrades(path)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, 10.0, trades[0].Size)
}

func TestParseTradesMissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		header string
		field  string
	}{
		{"no amount", "side,outcome,timestamp", "amount"},
		{"no side", "size,outcome,timestamp", "side"},
		{"no outcome", "size,side,timestamp", "outcome"},
		{"no timestamp", "size,side,outcome", "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, dir, tt.name+".csv", tt.header+"\n")
			_, _, err := newTestParser(t).ParseTrades(path)
			require.Error(t, err)
			require.True(t, errors.IsMissingField(err))
			var fieldErr *errors.MissingFieldError
			require.True(t, stderrors.As(err, &fieldErr))
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}

func TestParseTradesSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "m_trades.csv", `size,side,outcome,timestamp
10,BUY,Yes,1700000000
oops,BUY,Yes,1700000000
10,HOLD,Yes,1700000000
10,BUY,Maybe,1700000000
10,BUY,Yes,not-a-time
-5,SELL,No,1700000000
20,SELL,No,1700003600.0
`)

	trades, _, err := newTestParser(t).ParseTrades(path)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, 10.0, trades[0].Size)
	// Float-formatted timestamps are accepted.
	assert.Equal(t, int64(1700003600), trades[1].Timestamp)
}

func TestParseTradesMissingFile(t *testing.T) {
	_, _, err := newTestParser(t).ParseTrades(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestFindPriceFile(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "rain_price.csv", "timestamp,price\n")
	writeCSV(t, dir, "snow.csv", "timestamp,price\n")
	writeCSV(t, dir, "official-hail-history.csv", "timestamp,price\n")

	path, ok := FindPriceFile(dir, "rain")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "rain_price.csv"), path)

	path, ok = FindPriceFile(dir, "snow")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "snow.csv"), path)

	path, ok = FindPriceFile(dir, "hail")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "official-hail-history.csv"), path)

	_, ok = FindPriceFile(dir, "sleet")
	assert.False(t, ok)

	_, ok = FindPriceFile(filepath.Join(dir, "nowhere"), "rain")
	assert.False(t, ok)
}

func TestLoadPriceSeries(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "rain_price.csv", `timestamp,price
1700000000,0.45
bad,0.50
1700003600,0.55
`)

	points, err := newTestParser(t).LoadPriceSeries(path)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, segmentation.PricePoint{Timestamp: 1700000000, Price: 0.45}, points[0])
	assert.Equal(t, segmentation.PricePoint{Timestamp: 1700003600, Price: 0.55}, points[1])
}

func TestLoadPriceSeriesMissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "p.csv", "time,value\n1,2\n")
	_, err := newTestParser(t).LoadPriceSeries(path)
	assert.Error(t, err)
}
