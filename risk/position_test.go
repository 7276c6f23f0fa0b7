package risk

import (
	"testing"

	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "want %s got %s", want, got.String())
}

func TestSizeByRisk_Scenario(t *testing.T) {
	t.Parallel()

	got := SizeByRisk(RiskSizing{
		Direction:      market.Long,
		Balance:        d("1000"),
		MaxRiskPercent: d("1"),
		Entry:          d("100"),
		Levels:         Levels{StopLoss: d("95"), TakeProfit: d("115")},
	})

	assert.Empty(t, got.InputIssue)
	assert.Equal(t, SizeByRiskDistance, got.Method)
	assertDec(t, "5", got.RiskPerUnit)
	assertDec(t, "2", got.Quantity)
	assertDec(t, "200", got.Notional)
	assertDec(t, "10", got.DollarRisk)
	assertDec(t, "30", got.DollarReward)
	assertDec(t, "3", got.RiskRewardRatio)
	assertDec(t, "1", got.PercentOfBalanceAtRisk)
}

func TestSizeByRisk_Short(t *testing.T) {
	t.Parallel()

	got := SizeByRisk(RiskSizing{
		Direction:      market.Short,
		Balance:        d("5000"),
		MaxRiskPercent: d("0.5"),
		Entry:          d("250"),
		Levels:         Levels{StopLoss: d("260"), TakeProfit: d("220")},
	})

	assertDec(t, "10", got.RiskPerUnit)
	assertDec(t, "30", got.RewardPerUnit)
	assertDec(t, "2.5", got.Quantity)
	assertDec(t, "25", got.DollarRisk)
	assertDec(t, "75", got.DollarReward)
	assertDec(t, "3", got.RiskRewardRatio)
}

func TestSizeByRisk_WrongSideStop(t *testing.T) {
	t.Parallel()

	got := SizeByRisk(RiskSizing{
		Direction:      market.Long,
		Balance:        d("1000"),
		MaxRiskPercent: d("1"),
		Entry:          d("100"),
		Levels:         Levels{StopLoss: d("105"), TakeProfit: d("120")},
	})

	assert.Empty(t, got.InputIssue)
	assert.True(t, got.Quantity.IsZero())
	assertDec(t, "-5", got.RiskPerUnit)
	assert.True(t, got.DollarRisk.IsZero())
	assert.True(t, got.RiskRewardRatio.IsZero())
}

func TestSizeByRisk_NeverExceedsBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		balance, pct, entry, stop string
	}{
		{"1000", "1", "100", "95"},
		{"1000", "1", "100", "97"},
		{"12345.67", "0.75", "3.3333", "3.1"},
		{"0.5", "2", "64000", "63000"},
		{"250000", "1.5", "0.00012", "0.00011"},
		{"777", "0.1", "19.99", "18.01"},
	}

	for _, tt := range tests {
		got := SizeByRisk(RiskSizing{
			Direction:      market.Long,
			Balance:        d(tt.balance),
			MaxRiskPercent: d(tt.pct),
			Entry:          d(tt.entry),
			Levels:         Levels{StopLoss: d(tt.stop), TakeProfit: d(tt.entry).Mul(d("2"))},
		})
		budget := d(tt.balance).Mul(d(tt.pct)).Div(d("100"))
		assert.True(t, got.DollarRisk.LessThanOrEqual(budget.Add(d("0.000000001"))),
			"risk %s exceeds budget %s", got.DollarRisk, budget)
	}
}

func TestSizeByRisk_Idempotent(t *testing.T) {
	t.Parallel()

	in := RiskSizing{
		Direction:      market.Short,
		Balance:        d("1234.5"),
		MaxRiskPercent: d("0.7"),
		Entry:          d("3.14159"),
		Levels:         Levels{StopLoss: d("3.3"), TakeProfit: d("2.5")},
	}
	assert.Equal(t, SizeByRisk(in), SizeByRisk(in))

	pin := PercentSizing{
		Direction: market.Long,
		Balance:   d("99.9"),
		Percent:   d("12.5"),
		Entry:     d("7"),
		Levels:    Levels{StopLoss: d("6.5"), TakeProfit: d("9")},
	}
	assert.Equal(t, SizeByPercent(pin), SizeByPercent(pin))
}

func TestSizeByRisk_InputIssues(t *testing.T) {
	t.Parallel()

	base := RiskSizing{
		Direction:      market.Long,
		Balance:        d("1000"),
		MaxRiskPercent: d("1"),
		Entry:          d("100"),
		Levels:         Levels{StopLoss: d("95"), TakeProfit: d("110")},
	}

	tests := []struct {
		name   string
		mutate func(*RiskSizing)
	}{
		{"zero balance", func(in *RiskSizing) { in.Balance = decimal.Zero }},
		{"negative entry", func(in *RiskSizing) { in.Entry = d("-1") }},
		{"unknown direction", func(in *RiskSizing) { in.Direction = market.DirectionUnknown }},
		{"missing stop", func(in *RiskSizing) { in.Levels.StopLoss = decimal.Zero }},
		{"missing target", func(in *RiskSizing) { in.Levels.TakeProfit = decimal.Zero }},
		{"zero risk percent", func(in *RiskSizing) { in.MaxRiskPercent = decimal.Zero }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := base
			tt.mutate(&in)
			got := SizeByRisk(in)
			assert.NotEmpty(t, got.InputIssue)
			assert.True(t, got.Quantity.IsZero())
		})
	}
}

func TestSizeByPercent(t *testing.T) {
	t.Parallel()

	got := SizeByPercent(PercentSizing{
		Direction: market.Long,
		Balance:   d("1000"),
		Percent:   d("10"),
		Entry:     d("50"),
		Levels:    Levels{StopLoss: d("49"), TakeProfit: d("53")},
	})

	assert.False(t, got.MinNotionalApplied)
	assert.Equal(t, SizeByBalancePct, got.Method)
	assertDec(t, "100", got.Notional)
	assertDec(t, "2", got.Quantity)
	assertDec(t, "2", got.DollarRisk)
	assertDec(t, "6", got.DollarReward)
	assertDec(t, "3", got.RiskRewardRatio)
	assertDec(t, "0.2", got.PercentOfBalanceAtRisk)
}

func TestSizeByPercent_MinNotionalFloor(t *testing.T) {
	t.Parallel()

	entry := d("100")
	got := SizeByPercent(PercentSizing{
		Direction: market.Long,
		Balance:   d("3"),
		Percent:   d("50"),
		Entry:     entry,
		Levels:    Levels{StopLoss: d("95"), TakeProfit: d("110")},
	})

	assert.True(t, got.MinNotionalApplied)
	assertDec(t, "5", got.Notional)
	assert.True(t, got.Quantity.Equal(MinNotional.Div(entry)))
	assertDec(t, "0.05", got.Quantity)
}

func TestSizeByPercent_NeverBelowFloor(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ balance, pct string }{
		{"1", "1"}, {"4.99", "100"}, {"10", "49.9"}, {"10", "50"}, {"100000", "0.001"}, {"20", "30"},
	} {
		got := SizeByPercent(PercentSizing{
			Direction: market.Short,
			Balance:   d(tt.balance),
			Percent:   d(tt.pct),
			Entry:     d("3"),
			Levels:    Levels{StopLoss: d("3.5"), TakeProfit: d("1")},
		})
		assert.True(t, got.Notional.GreaterThanOrEqual(MinNotional), "balance=%s pct=%s notional=%s", tt.balance, tt.pct, got.Notional)
		assert.True(t, got.Quantity.IsPositive())
	}
}

func TestSizeByPercent_BadPercent(t *testing.T) {
	t.Parallel()

	for _, pct := range []string{"0", "-5", "100.01"} {
		got := SizeByPercent(PercentSizing{
			Direction: market.Long,
			Balance:   d("1000"),
			Percent:   d(pct),
			Entry:     d("10"),
			Levels:    Levels{StopLoss: d("9"), TakeProfit: d("13")},
		})
		assert.NotEmpty(t, got.InputIssue, pct)
		assert.True(t, got.Quantity.IsZero(), pct)
	}
}

func TestRatioMatchesPerUnitDistances(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dir                 market.Direction
		entry, stop, target string
	}{
		{market.Long, "100", "95", "110"},
		{market.Long, "1.08512", "1.08312", "1.09112"},
		{market.Short, "64000", "65000", "61000"},
		{market.Short, "0.5", "0.55", "0.3"},
	}

	for _, tt := range tests {
		res := SizeByRisk(RiskSizing{
			Direction:      tt.dir,
			Balance:        d("10000"),
			MaxRiskPercent: d("1"),
			Entry:          d(tt.entry),
			Levels:         Levels{StopLoss: d(tt.stop), TakeProfit: d(tt.target)},
		})
		assert.True(t, res.RiskPerUnit.IsPositive())
		assert.True(t, res.RewardPerUnit.IsPositive())
		assert.True(t, res.RiskRewardRatio.Equal(res.RewardPerUnit.Div(res.RiskPerUnit)))
	}
}
