package risk

import (
	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
)

// RiskPerUnit is the loss per unit if the stop is hit. It is signed by
// direction: a stop on the wrong side of the entry gives zero or less.
func RiskPerUnit(dir market.Direction, entry, stop decimal.Decimal) decimal.Decimal {
	switch dir {
	case market.Long:
		return entry.Sub(stop)
	case market.Short:
		return stop.Sub(entry)
	default:
		return decimal.Zero
	}
}

// RewardPerUnit is the gain per unit at the take-profit, signed the same way.
func RewardPerUnit(dir market.Direction, entry, target decimal.Decimal) decimal.Decimal {
	switch dir {
	case market.Long:
		return target.Sub(entry)
	case market.Short:
		return entry.Sub(target)
	default:
		return decimal.Zero
	}
}

// RR is reward/risk per unit. Misplaced levels have no meaningful ratio and
// report 0.
func RR(riskPerUnit, rewardPerUnit decimal.Decimal) decimal.Decimal {
	if !riskPerUnit.IsPositive() || !rewardPerUnit.IsPositive() {
		return decimal.Zero
	}
	return rewardPerUnit.Div(riskPerUnit)
}

// PlannedRisk is the dollar loss of quantity units stopped out.
func PlannedRisk(quantity, entry, stop decimal.Decimal) decimal.Decimal {
	return quantity.Mul(entry.Sub(stop).Abs())
}

// PlannedReward is the dollar gain of quantity units at the target.
func PlannedReward(quantity, entry, target decimal.Decimal) decimal.Decimal {
	return quantity.Mul(target.Sub(entry).Abs())
}

// RiskPct is risk as a percentage of balance (1.0 = 1%).
func RiskPct(plannedRisk, balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return plannedRisk.Div(balance).Mul(hundred)
}
