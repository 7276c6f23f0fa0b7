package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var csvHeader = []string{
	"order_id", "candidate_id", "symbol", "side", "kind", "mode", "quantity", "entry_price",
	"stop_loss", "take_profit", "notional", "dollar_risk", "rr", "risk_pct", "accepted_at",
}

// CSVJournal appends order records to a file. It is safe for concurrent use.
type CSVJournal struct {
	mu     sync.Mutex
	orders *csv.Writer
	f      *os.File
}

// NewCSV opens path for appending and writes the header when the file is new.
func NewCSV(path string) (*CSVJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return &CSVJournal{orders: w, f: f}, nil
}

func (j *CSVJournal) RecordOrder(r OrderRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.orders.Write(csvRow(r)); err != nil {
		return fmt.Errorf("record order %q: %w", r.OrderID, err)
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSVJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.orders.Flush()
	if err := j.orders.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func csvRow(r OrderRecord) []string {
	return []string{
		r.OrderID,
		r.CandidateID,
		r.Symbol,
		string(r.Side),
		string(r.Kind),
		string(r.Mode),
		r.Quantity.String(),
		r.Entry.String(),
		r.StopLoss.String(),
		r.TakeProfit.String(),
		r.Notional.String(),
		r.DollarRisk.String(),
		r.RR.String(),
		r.RiskPct.String(),
		r.AcceptedAt.UTC().Format(time.RFC3339Nano),
	}
}

// WriteCSV writes recs with a header to w.
func WriteCSV(w io.Writer, recs []OrderRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(csvRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
