package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(order_id, candidate_id, symbol, side, kind, mode, quantity, entry_price, stop_loss, take_profit,
		 notional, dollar_risk, rr, risk_pct, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.CandidateID, r.Symbol, string(r.Side), string(r.Kind), string(r.Mode),
		r.Quantity, r.Entry, r.StopLoss, r.TakeProfit,
		r.Notional, r.DollarRisk, r.RR, r.RiskPct, r.AcceptedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record order %q: %w", r.OrderID, err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
