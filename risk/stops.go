package risk

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
)

// ErrNoVolatility means no usable volatility estimate was available, so no
// default levels can be produced and the caller must supply them.
var ErrNoVolatility = errors.New("no volatility estimate")

// Levels are the exit prices attached to a candidate.
type Levels struct {
	StopLoss   decimal.Decimal
	TakeProfit decimal.Decimal
}

// DefaultLevels derives a stop at 1.5x the volatility estimate and a target
// three times further away on the other side, a structural 3:1 reward:risk.
// Switching direction re-derives both levels from the entry.
func DefaultLevels(entry decimal.Decimal, dir market.Direction, volatility decimal.Decimal) (Levels, error) {
	if !volatility.IsPositive() {
		return Levels{}, fmt.Errorf("%w: got %s", ErrNoVolatility, volatility)
	}
	if !entry.IsPositive() {
		return Levels{}, fmt.Errorf("entry price must be positive, got %s", entry)
	}

	riskDistance := volatility.Mul(StopATRMultiple)
	rewardDistance := riskDistance.Mul(RewardRiskMultiple)

	var lv Levels
	switch dir {
	case market.Long:
		lv = Levels{StopLoss: entry.Sub(riskDistance), TakeProfit: entry.Add(rewardDistance)}
	case market.Short:
		lv = Levels{StopLoss: entry.Add(riskDistance), TakeProfit: entry.Sub(rewardDistance)}
	default:
		return Levels{}, fmt.Errorf("unknown direction %s", dir)
	}

	if !lv.StopLoss.IsPositive() || !lv.TakeProfit.IsPositive() {
		return Levels{}, fmt.Errorf("volatility %s too large for entry %s: derived levels sl=%s tp=%s",
			volatility, entry, lv.StopLoss, lv.TakeProfit)
	}
	return lv, nil
}
