package market

import "time"

// Candle is one closed OHLCV bar as delivered by a venue.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
