package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/riskexec/market"
)

var ErrNotFound = errors.New("order not found")

const orderColumns = `order_id, candidate_id, symbol, side, kind, mode, quantity, entry_price, stop_loss,
	take_profit, notional, dollar_risk, rr, risk_pct, accepted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (OrderRecord, error) {
	var (
		rec              OrderRecord
		side, kind, mode string
	)
	err := s.Scan(
		&rec.OrderID,
		&rec.CandidateID,
		&rec.Symbol,
		&side,
		&kind,
		&mode,
		&rec.Quantity,
		&rec.Entry,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.Notional,
		&rec.DollarRisk,
		&rec.RR,
		&rec.RiskPct,
		&rec.AcceptedAt,
	)
	rec.Side = market.Side(side)
	rec.Kind = market.OrderKind(kind)
	rec.Mode = market.Mode(mode)
	return rec, err
}

// GetOrder returns a single order record by venue order ID.
func (j *SQLite) GetOrder(orderID string) (OrderRecord, error) {
	row := j.db.QueryRow(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, orderID)
	rec, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderRecord{}, fmt.Errorf("%w: %q", ErrNotFound, orderID)
		}
		return OrderRecord{}, err
	}
	return rec, nil
}

// Filter narrows ListOrders. Zero fields match everything; the time range is
// [Since, Until).
type Filter struct {
	Mode   market.Mode
	Symbol string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// ListOrders returns matching orders oldest first.
func (j *SQLite) ListOrders(f Filter) ([]OrderRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, string(f.Mode))
	}
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, strings.ToUpper(f.Symbol))
	}
	if !f.Since.IsZero() {
		where = append(where, "accepted_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		where = append(where, "accepted_at < ?")
		args = append(args, f.Until.UTC())
	}

	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY accepted_at ASC, order_id ASC`
	if f.Limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
