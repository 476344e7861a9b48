package writer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/mt-bridge/internal/model"
)

func testSnapshot(bid, ask float64) model.Snapshot {
	return model.NewSnapshot(model.Quote{
		Symbol:       "XAUUSD",
		Bid:          bid,
		Ask:          ask,
		SpreadPoints: 35,
		TickTime:     1705312800,
	}, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))
}

func readDocument(t *testing.T, path string) map[string]map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestFileWriter_Write(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		name := "direct"
		if atomic {
			name = "atomic"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data", "mt_prices.json")
			w := NewFileWriter(path, model.DefaultKey, atomic)
			assert.Equal(t, path, w.Path())

			require.NoError(t, w.Write(context.Background(), testSnapshot(1900.00, 1900.35)))

			doc := readDocument(t, path)
			require.Len(t, doc, 1)
			entry := doc[model.DefaultKey]
			require.NotNil(t, entry)
			assert.Equal(t, "XAUUSD", entry["symbol"])
			assert.Equal(t, 1900.0, entry["bid"])
			assert.Equal(t, 1900.35, entry["ask"])
			assert.Equal(t, 0.35, entry["spread"])
			assert.Equal(t, float64(35), entry["spread_points"])
			assert.Equal(t, "2024-01-15T10:00:00.000000Z", entry["timestamp"])
			assert.Equal(t, float64(1705312800), entry["time"])
		})
	}
}

func TestFileWriter_ReplacesPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mt_prices.json")

	// Stale content with extra keys must not survive.
	require.NoError(t, os.WriteFile(path, []byte(`{"old_key": {"bid": 1}, "another": {}}`+"\n\n\n\n\n\n"), 0o644))

	w := NewFileWriter(path, model.DefaultKey, true)
	require.NoError(t, w.Write(context.Background(), testSnapshot(1900.00, 1900.35)))
	require.NoError(t, w.Write(context.Background(), testSnapshot(1901.10, 1901.30)))

	doc := readDocument(t, path)
	require.Len(t, doc, 1)
	assert.Equal(t, 1901.10, doc[model.DefaultKey]["bid"])
	assert.Equal(t, 0.2, doc[model.DefaultKey]["spread"])

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileWriter_Indented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w := NewFileWriter(path, "broker_xau_usd", true)
	require.NoError(t, w.Write(context.Background(), testSnapshot(1, 2)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{\n  \"broker_xau_usd\": {\n    \"symbol\": \"XAUUSD\",")
}

func TestFileWriter_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	// "data" is a regular file, so the output dir cannot be created.
	w := NewFileWriter(filepath.Join(blocker, "mt_prices.json"), model.DefaultKey, true)
	err := w.Write(context.Background(), testSnapshot(1900, 1900.35))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create output dir")
}
