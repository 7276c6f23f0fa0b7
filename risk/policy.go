package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Gating thresholds. They are global so every candidate is held to the same
// contract; RiskParameters only tune sizing inputs and the Kelly advisory.
var (
	MinRewardRisk      = decimal.NewFromInt(2)   // reward:risk, inclusive
	MaxRiskPctPerTrade = decimal.NewFromInt(2)   // percent of balance
	MinNotional        = decimal.NewFromInt(5)   // quote currency
	StopATRMultiple    = decimal.NewFromFloat(1.5)
	RewardRiskMultiple = decimal.NewFromInt(3)

	hundred = decimal.NewFromInt(100)
)

// RiskParameters are the caller-tunable inputs. The defaults let any
// candidate be evaluated without configuration.
type RiskParameters struct {
	MaxRiskPercent  decimal.Decimal // 1.0 = 1% of balance
	WinRate         decimal.Decimal // 0..1
	AvgWinLossRatio decimal.Decimal // > 0
	KellyFraction   decimal.Decimal // 0..1
}

func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MaxRiskPercent:  decimal.NewFromInt(1),
		WinRate:         decimal.NewFromFloat(0.55),
		AvgWinLossRatio: decimal.NewFromFloat(1.5),
		KellyFraction:   decimal.NewFromFloat(0.25),
	}
}

// Validate rejects parameter sets that can only come from a broken config.
func (p RiskParameters) Validate() error {
	one := decimal.NewFromInt(1)
	if !p.MaxRiskPercent.IsPositive() {
		return fmt.Errorf("max risk percent must be positive, got %s", p.MaxRiskPercent)
	}
	if p.WinRate.IsNegative() || p.WinRate.GreaterThan(one) {
		return fmt.Errorf("win rate must be between 0 and 1, got %s", p.WinRate)
	}
	if !p.AvgWinLossRatio.IsPositive() {
		return fmt.Errorf("average win/loss ratio must be positive, got %s", p.AvgWinLossRatio)
	}
	if p.KellyFraction.IsNegative() || p.KellyFraction.GreaterThan(one) {
		return fmt.Errorf("kelly fraction must be between 0 and 1, got %s", p.KellyFraction)
	}
	return nil
}

// KellyAdvice is KellySuggestedPercent for these parameters.
func (p RiskParameters) KellyAdvice() decimal.Decimal {
	return KellySuggestedPercent(p.WinRate, p.AvgWinLossRatio, p.KellyFraction)
}
