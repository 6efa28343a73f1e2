package recorder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"PairTrader/internal/model"
)

// csvTimeLayout is the timestamp format written to the trade log.
const csvTimeLayout = "2006-01-02 15:04:05"

// CSVTradeLog appends one row per fill: action,qty,price,timestamp.
// Cycles are not written.
type CSVTradeLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVTradeLog creates the log file with a header if it does not exist.
func NewCSVTradeLog(path string) (*CSVTradeLog, error) {
	if path == "" {
		return nil, errors.New("empty trade log path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			return nil, err
		}
		f, err := os.Create(abs)
		if err != nil {
			return nil, err
		}
		w := csv.NewWriter(f)
		_ = w.Write([]string{"action", "qty", "price", "timestamp"})
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		_ = f.Close()
	}
	return &CSVTradeLog{path: abs}, nil
}

func (t *CSVTradeLog) RecordCycle(_ *CycleEvent) error { return nil }

func (t *CSVTradeLog) RecordTrade(fill *model.Fill) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	rec := []string{
		string(fill.Intent.Side),
		fill.Quantity.String(),
		fill.Price.String(),
		fill.FilledAt.Format(csvTimeLayout),
	}
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (t *CSVTradeLog) Close() error { return nil }
