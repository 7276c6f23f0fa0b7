package risk

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
)

type SizingMethod string

const (
	SizeByRiskDistance SizingMethod = "risk"
	SizeByBalancePct   SizingMethod = "percent"
)

func ParseSizingMethod(s string) (SizingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "risk", "risk-distance":
		return SizeByRiskDistance, nil
	case "percent", "pct", "percent-of-balance":
		return SizeByBalancePct, nil
	default:
		return "", fmt.Errorf("unknown sizing method %q (want risk|percent)", s)
	}
}

// PositionSizeResult is always derived from its inputs and never cached.
// Dollar risk and reward are quantity times the distance to each level, so
// the ratio between them matches RiskRewardRatio by construction.
type PositionSizeResult struct {
	Method SizingMethod

	Quantity decimal.Decimal // base units
	Notional decimal.Decimal // quote currency

	RiskPerUnit   decimal.Decimal // signed by direction
	RewardPerUnit decimal.Decimal // signed by direction

	DollarRisk             decimal.Decimal
	DollarReward           decimal.Decimal
	RiskRewardRatio        decimal.Decimal
	PercentOfBalanceAtRisk decimal.Decimal

	// MinNotionalApplied is set when percent sizing was lifted to MinNotional.
	MinNotionalApplied bool

	// InputIssue is non-empty when the inputs were unusable; Quantity is 0.
	InputIssue string
}

// RiskSizing sizes a position so a stop-out loses MaxRiskPercent of Balance.
type RiskSizing struct {
	Direction      market.Direction
	Balance        decimal.Decimal
	MaxRiskPercent decimal.Decimal
	Entry          decimal.Decimal
	Levels         Levels
}

// PercentSizing commits Percent of Balance, but never less than MinNotional.
type PercentSizing struct {
	Direction market.Direction
	Balance   decimal.Decimal
	Percent   decimal.Decimal
	Entry     decimal.Decimal
	Levels    Levels
}

func SizeByRisk(in RiskSizing) PositionSizeResult {
	if issue := checkInputs(in.Direction, in.Balance, in.Entry, in.Levels); issue != "" {
		return PositionSizeResult{Method: SizeByRiskDistance, InputIssue: issue}
	}
	if !in.MaxRiskPercent.IsPositive() {
		return PositionSizeResult{Method: SizeByRiskDistance, InputIssue: fmt.Sprintf("max risk percent must be positive, got %s", in.MaxRiskPercent)}
	}

	rpu := RiskPerUnit(in.Direction, in.Entry, in.Levels.StopLoss)
	qty := MaxAllowedSize(in.Balance, in.MaxRiskPercent, rpu)

	res := derive(in.Direction, qty, in.Balance, in.Entry, in.Levels)
	res.Method = SizeByRiskDistance
	res.Notional = qty.Mul(in.Entry)
	return res
}

func SizeByPercent(in PercentSizing) PositionSizeResult {
	if issue := checkInputs(in.Direction, in.Balance, in.Entry, in.Levels); issue != "" {
		return PositionSizeResult{Method: SizeByBalancePct, InputIssue: issue}
	}
	if !in.Percent.IsPositive() || in.Percent.GreaterThan(hundred) {
		return PositionSizeResult{Method: SizeByBalancePct, InputIssue: fmt.Sprintf("percent must be in (0, 100], got %s", in.Percent)}
	}

	notional := in.Balance.Mul(in.Percent).Div(hundred)
	floored := false
	if notional.LessThan(MinNotional) {
		notional = MinNotional
		floored = true
	}
	qty := notional.Div(in.Entry)

	res := derive(in.Direction, qty, in.Balance, in.Entry, in.Levels)
	res.Method = SizeByBalancePct
	res.Notional = notional
	res.MinNotionalApplied = floored
	return res
}

func checkInputs(dir market.Direction, balance, entry decimal.Decimal, lv Levels) string {
	switch {
	case dir != market.Long && dir != market.Short:
		return "direction must be long or short"
	case !entry.IsPositive():
		return fmt.Sprintf("entry price must be positive, got %s", entry)
	case !balance.IsPositive():
		return fmt.Sprintf("balance must be positive, got %s", balance)
	case !lv.StopLoss.IsPositive():
		return fmt.Sprintf("stop loss must be positive, got %s", lv.StopLoss)
	case !lv.TakeProfit.IsPositive():
		return fmt.Sprintf("take profit must be positive, got %s", lv.TakeProfit)
	}
	return ""
}

func derive(dir market.Direction, qty, balance, entry decimal.Decimal, lv Levels) PositionSizeResult {
	rpu := RiskPerUnit(dir, entry, lv.StopLoss)
	rwpu := RewardPerUnit(dir, entry, lv.TakeProfit)
	dollarRisk := PlannedRisk(qty, entry, lv.StopLoss)

	return PositionSizeResult{
		Quantity:               qty,
		RiskPerUnit:            rpu,
		RewardPerUnit:          rwpu,
		DollarRisk:             dollarRisk,
		DollarReward:           PlannedReward(qty, entry, lv.TakeProfit),
		RiskRewardRatio:        RR(rpu, rwpu),
		PercentOfBalanceAtRisk: RiskPct(dollarRisk, balance),
	}
}
