package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(action, details, txID string) Entry {
	return Entry{
		Timestamp: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Action:    action,
		Details:   details,
		TxID:      txID,
	}
}

func TestAppendAndRead(t *testing.T) {
	ws := t.TempDir()

	require.NoError(t, Append(ws, []Entry{entry("init", "workspace created", "")}))
	require.NoError(t, Append(ws, []Entry{
		entry("append", "buy 10 AAPL", "01ARZ3NDEKTSV4RRFFQ69G5FAV"),
		entry("export", "3 tables", ""),
	}))

	entries, err := Read(ws)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "init", entries[0].Action)
	assert.Equal(t, "append", entries[1].Action)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", entries[1].TxID)
	assert.Equal(t, "export", entries[2].Action)
}

func TestHeaderWrittenOnce(t *testing.T) {
	ws := t.TempDir()

	require.NoError(t, Append(ws, []Entry{entry("init", "", "")}))
	require.NoError(t, Append(ws, []Entry{entry("export", "", "")}))

	data, err := os.ReadFile(filepath.Join(ws, "logs", "audit.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header))
}

func TestReadMissingLog(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestDetailsWithCommas(t *testing.T) {
	ws := t.TempDir()

	require.NoError(t, Append(ws, []Entry{entry("import", "tx: 4, account: 2, instrument: 2", "")}))

	entries, err := Read(ws)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tx: 4, account: 2, instrument: 2", entries[0].Details)
}
