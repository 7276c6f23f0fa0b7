// Package journal records orders the venue accepted.
package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
)

// OrderRecord is one accepted order with the plan it was sized from.
type OrderRecord struct {
	OrderID     string
	CandidateID string
	Symbol      string
	Side        market.Side
	Kind        market.OrderKind
	Mode        market.Mode

	Quantity   decimal.Decimal
	Entry      decimal.Decimal
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
	Notional   decimal.Decimal
	DollarRisk decimal.Decimal
	RR         decimal.Decimal
	RiskPct    decimal.Decimal

	AcceptedAt time.Time
}

// NewOrderRecord captures c as accepted under orderID at time at.
func NewOrderRecord(c risk.Candidate, mode market.Mode, orderID string, at time.Time) OrderRecord {
	kind := c.Kind
	if kind == "" {
		kind = market.Market
	}
	return OrderRecord{
		OrderID:     orderID,
		CandidateID: c.ID,
		Symbol:      c.Signal.Symbol,
		Side:        c.Side(),
		Kind:        kind,
		Mode:        mode,
		Quantity:    c.Size.Quantity,
		Entry:       c.Signal.Entry,
		StopLoss:    c.Levels.StopLoss,
		TakeProfit:  c.Levels.TakeProfit,
		Notional:    c.Size.Notional,
		DollarRisk:  c.Size.DollarRisk,
		RR:          c.Size.RiskRewardRatio,
		RiskPct:     c.Size.PercentOfBalanceAtRisk,
		AcceptedAt:  at.UTC(),
	}
}

type Journal interface {
	RecordOrder(OrderRecord) error
	Close() error
}

// Open returns the journal kind named by kind: "sqlite" or "csv".
func Open(kind, dbPath, ordersPath string) (Journal, error) {
	switch strings.ToLower(kind) {
	case "sqlite", "":
		return NewSQLite(dbPath)
	case "csv":
		return NewCSV(ordersPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q (want sqlite|csv)", kind)
	}
}
