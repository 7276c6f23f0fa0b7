// Package indicators computes volatility measures over venue candles.
package indicators

import "github.com/rustyeddy/riskexec/market"

// Indicator consumes closed candles one at a time.
type Indicator interface {
	// Name returns a stable identifier like "ATR(14)".
	Name() string

	// Warmup returns how many candles are needed before Ready() can be true.
	Warmup() int

	Reset()
	Update(c market.Candle)
	Ready() bool

	// Value is 0 until Ready.
	Value() float64
}
