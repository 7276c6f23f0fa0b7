package market

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InputError reports a malformed signal or account snapshot. It is an
// expected condition from upstream feeds, not a programming error.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func inputErr(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Signal is a proposed trade. Values are copied, never shared, so a Signal
// cannot change after it has been accepted at the boundary.
type Signal struct {
	Symbol     string
	Direction  Direction
	Entry      decimal.Decimal
	StopLoss   decimal.NullDecimal
	TakeProfit decimal.NullDecimal
	Confidence float64 // 0-100
}

// NewSignal validates the fields and returns a Signal. Stop-loss and
// take-profit are optional; pass nil to leave them unset.
func NewSignal(symbol string, dir Direction, entry decimal.Decimal, stopLoss, takeProfit *decimal.Decimal, confidence float64) (Signal, error) {
	s := Signal{
		Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		Direction:  dir,
		Entry:      entry,
		Confidence: confidence,
	}
	if stopLoss != nil {
		s.StopLoss = decimal.NewNullDecimal(*stopLoss)
	}
	if takeProfit != nil {
		s.TakeProfit = decimal.NewNullDecimal(*takeProfit)
	}
	if err := s.Validate(); err != nil {
		return Signal{}, err
	}
	return s, nil
}

// Validate checks the shape of the signal. Level placement relative to the
// entry is a risk decision and is left to the validator.
func (s Signal) Validate() error {
	if s.Symbol == "" {
		return inputErr("symbol", "symbol is required")
	}
	if s.Direction != Long && s.Direction != Short {
		return inputErr("direction", "direction must be long or short")
	}
	if !s.Entry.IsPositive() {
		return inputErr("entryPrice", "entry price must be positive, got %s", s.Entry)
	}
	if s.StopLoss.Valid && !s.StopLoss.Decimal.IsPositive() {
		return inputErr("stopLoss", "stop loss must be positive, got %s", s.StopLoss.Decimal)
	}
	if s.TakeProfit.Valid && !s.TakeProfit.Decimal.IsPositive() {
		return inputErr("takeProfit", "take profit must be positive, got %s", s.TakeProfit.Decimal)
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return inputErr("confidence", "confidence must be between 0 and 100, got %g", s.Confidence)
	}
	return nil
}

// HasLevels reports whether both exit levels were supplied with the signal.
func (s Signal) HasLevels() bool {
	return s.StopLoss.Valid && s.TakeProfit.Valid
}

// rawSignal is the loose wire shape produced by analysis feeds. Prices may be
// JSON numbers or quoted strings, and a few key aliases are in circulation.
type rawSignal struct {
	Symbol     string              `json:"symbol"`
	Direction  string              `json:"direction"`
	Side       string              `json:"side"`
	EntryPrice decimal.NullDecimal `json:"entryPrice"`
	Entry      decimal.NullDecimal `json:"entry"`
	StopLoss   decimal.NullDecimal `json:"stopLoss"`
	TakeProfit decimal.NullDecimal `json:"takeProfit"`
	Confidence decimal.NullDecimal `json:"confidence"`
}

// ParseSignal decodes a signal from an upstream JSON payload and validates it.
// Any shape problem is returned as an *InputError.
func ParseSignal(data []byte) (Signal, error) {
	var raw rawSignal
	if err := json.Unmarshal(data, &raw); err != nil {
		return Signal{}, inputErr("payload", "%v", err)
	}

	dirText := raw.Direction
	if dirText == "" {
		dirText = raw.Side
	}
	dir, err := ParseDirection(dirText)
	if err != nil {
		return Signal{}, inputErr("direction", "%v", err)
	}

	entry := raw.EntryPrice
	if !entry.Valid {
		entry = raw.Entry
	}
	if !entry.Valid {
		return Signal{}, inputErr("entryPrice", "entry price is required")
	}

	s := Signal{
		Symbol:     strings.ToUpper(strings.TrimSpace(raw.Symbol)),
		Direction:  dir,
		Entry:      entry.Decimal,
		StopLoss:   raw.StopLoss,
		TakeProfit: raw.TakeProfit,
	}
	if raw.Confidence.Valid {
		s.Confidence = raw.Confidence.Decimal.InexactFloat64()
	}
	if err := s.Validate(); err != nil {
		return Signal{}, err
	}
	return s, nil
}
