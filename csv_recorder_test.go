package limitbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVTradeRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	recorder, err := NewCSVTradeRecorder(path)
	require.NoError(t, err)

	ts := time.UnixMilli(1700000000123)
	err = recorder.Record(
		&Trade{BuyOrderID: 1, SellOrderID: 2, Price: decimal.RequireFromString("100.50"), Size: 7, CreatedAt: ts},
		&Trade{BuyOrderID: 3, SellOrderID: 2, Price: decimal.RequireFromString("100"), Size: 1, CreatedAt: ts},
	)
	require.NoError(t, err)
	require.NoError(t, recorder.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp_ms,buy_order_id,sell_order_id,price,quantity", lines[0])
	assert.Equal(t, "1700000000123,1,2,100.5,7", lines[1])
	assert.Equal(t, "1700000000123,3,2,100,1", lines[2])
}

func TestCSVTradeRecorderAppendsWithoutSecondHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	ts := time.UnixMilli(1000)

	recorder, err := NewCSVTradeRecorder(path)
	require.NoError(t, err)
	require.NoError(t, recorder.Record(&Trade{BuyOrderID: 1, SellOrderID: 2, Price: decimal.NewFromInt(10), Size: 1, CreatedAt: ts}))
	require.NoError(t, recorder.Close())

	// Reopen: existing content is preserved and no header is repeated.
	recorder, err = NewCSVTradeRecorder(path)
	require.NoError(t, err)
	require.NoError(t, recorder.Record(&Trade{BuyOrderID: 3, SellOrderID: 4, Price: decimal.NewFromInt(11), Size: 2, CreatedAt: ts}))
	require.NoError(t, recorder.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, 1, strings.Count(string(raw), "timestamp_ms"))
}

func TestBookWritesTradesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")

	recorder, err := NewCSVTradeRecorder(path)
	require.NoError(t, err)

	book := NewOrderBook(recorder, nil)
	place(t, book, Buy, "100.00", 10, "alice")
	place(t, book, Sell, "99.00", 4, "bob")
	require.NoError(t, recorder.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[1], ",")
	require.Len(t, fields, 5)
	assert.Equal(t, "1", fields[1], "buy order id")
	assert.Equal(t, "2", fields[2], "sell order id")
	assert.Equal(t, "100", fields[3], "executed at the resting price")
	assert.Equal(t, "4", fields[4])
}

func TestCSVTradeRecorderOpenError(t *testing.T) {
	_, err := NewCSVTradeRecorder(filepath.Join(t.TempDir(), "missing", "trades.csv"))
	assert.Error(t, err)
}
