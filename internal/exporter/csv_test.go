package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polyseg/internal/config"
)

func newTestWriter(t *testing.T) (*CSVWriter, string) {
	t.Helper()
	dir := t.TempDir()
	paths, err := config.NewPaths(config.PathsConfig{
		RawDir:     filepath.Join(dir, "raw"),
		OutputDir:  filepath.Join(dir, "output"),
		ReportsDir: filepath.Join(dir, "reports"),
		LogsDir:    filepath.Join(dir, "logs"),
	})
	require.NoError(t, err)
	return NewCSVWriter(paths), dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}

func TestWriteSimpleCSV(t *testing.T) {
	writer, dir := newTestWriter(t)
	path := filepath.Join(dir, "output", "ev", "m", "test.csv")

	err := writer.WriteSimpleCSV(path, []string{"a", "b"}, [][]string{
		{"1", "2"},
		{"3", "4"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// BOM prefix present.
	assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, "a,b\n1,2\n3,4\n", readFile(t, path))
}

func TestWriteCSVRelativePathUsesOutputDir(t *testing.T) {
	writer, dir := newTestWriter(t)

	err := writer.WriteCSV("nested/rel.csv", WriteOptions{
		Headers: []string{"x"},
		Records: [][]string{{"1"}},
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "output", "nested", "rel.csv"))
}

func TestWriteSimpleCSVOverwritesExisting(t *testing.T) {
	writer, dir := newTestWriter(t)
	path := filepath.Join(dir, "output", "rerun.csv")

	require.NoError(t, writer.WriteSimpleCSV(path, []string{"a"}, [][]string{{"1"}, {"2"}}))
	require.NoError(t, writer.WriteSimpleCSV(path, []string{"a"}, [][]string{{"3"}}))

	assert.Equal(t, "a\n3\n", readFile(t, path))
}

func TestStreamWriter(t *testing.T) {
	writer, dir := newTestWriter(t)
	path := filepath.Join(dir, "output", "stream.csv")

	stream, err := writer.CreateStreamWriter(path, []string{"day", "p"})
	require.NoError(t, err)
	require.NoError(t, stream.WriteRecord([]string{"1", "0.75"}))
	require.NoError(t, stream.WriteRecord([]string{"2", ""}))
	require.NoError(t, stream.Close())

	assert.Equal(t, "day,p\n1,0.75\n2,\n", readFile(t, path))
}
