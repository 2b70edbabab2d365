package limitbook

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

const csvHeader = "timestamp_ms,buy_order_id,sell_order_id,price,quantity\n"

// CSVTradeRecorder appends trades to a CSV file, one line per trade, flushed
// after every Record call so a crash loses at most the trade being written.
// The header line is written once, when the file is first created.
type CSVTradeRecorder struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewCSVTradeRecorder opens (or creates) the trade log at path in
// append-only mode.
func NewCSVTradeRecorder(path string) (*CSVTradeRecorder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trade log: %w", err)
	}

	r := &CSVTradeRecorder{
		file: file,
		w:    bufio.NewWriter(file),
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat trade log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := r.w.WriteString(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("write trade log header: %w", err)
		}
		if err := r.w.Flush(); err != nil {
			file.Close()
			return nil, fmt.Errorf("flush trade log header: %w", err)
		}
	}

	return r, nil
}

// Record appends one line per trade and flushes.
func (r *CSVTradeRecorder) Record(trades ...*Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range trades {
		_, err := fmt.Fprintf(r.w, "%d,%d,%d,%s,%d\n",
			t.CreatedAt.UnixMilli(), t.BuyOrderID, t.SellOrderID, t.Price.String(), t.Size)
		if err != nil {
			return fmt.Errorf("append trade: %w", err)
		}
	}

	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("flush trade log: %w", err)
	}
	return nil
}

// Close flushes buffered trades and closes the underlying file.
func (r *CSVTradeRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("flush trade log: %w", err)
	}
	return r.file.Close()
}
