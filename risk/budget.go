package risk

import "github.com/shopspring/decimal"

// MaxAllowedSize converts a balance and a max risk percent into the largest
// quantity whose stop-out loses no more than that share of the balance.
// A non-positive riskPerUnit (stop on the wrong side) yields 0.
func MaxAllowedSize(balance, maxRiskPercent, riskPerUnit decimal.Decimal) decimal.Decimal {
	if !riskPerUnit.IsPositive() || !balance.IsPositive() || !maxRiskPercent.IsPositive() {
		return decimal.Zero
	}
	maxRiskAmount := balance.Mul(maxRiskPercent.Div(hundred))
	return maxRiskAmount.Div(riskPerUnit)
}

// KellySuggestedPercent is the fractional Kelly share of balance,
// (w - (1-w)/b) * f, as a fraction (0.0625 = 6.25%). A negative edge clamps
// to 0. The figure is advisory and never changes a computed size.
func KellySuggestedPercent(winRate, avgWinLossRatio, kellyFraction decimal.Decimal) decimal.Decimal {
	if !avgWinLossRatio.IsPositive() {
		return decimal.Zero
	}
	lossRate := decimal.NewFromInt(1).Sub(winRate)
	raw := winRate.Sub(lossRate.Div(avgWinLossRatio)).Mul(kellyFraction)
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw
}
