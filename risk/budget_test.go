package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxAllowedSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                  string
		balance, pct, perUnit string
		want                  string
	}{
		{"one percent of 1000 at 5 per unit", "1000", "1", "5", "2"},
		{"half percent", "20000", "0.5", "0.002", "50000"},
		{"zero risk per unit", "1000", "1", "0", "0"},
		{"negative risk per unit", "1000", "1", "-5", "0"},
		{"zero balance", "0", "1", "5", "0"},
		{"zero percent", "1000", "0", "5", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertDec(t, tt.want, MaxAllowedSize(d(tt.balance), d(tt.pct), d(tt.perUnit)))
		})
	}
}

func TestKellySuggestedPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                    string
		winRate, ratio, fraction string
		want                    string
	}{
		{"defaults", "0.55", "1.5", "0.25", "0.0625"},
		{"full kelly coin flip at 2:1", "0.5", "2", "1", "0.25"},
		{"no edge", "0.4", "1.5", "0.25", "0"},
		{"negative edge clamps", "0.2", "1", "0.5", "0"},
		{"zero ratio", "0.6", "0", "0.25", "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assertDec(t, tt.want, KellySuggestedPercent(d(tt.winRate), d(tt.ratio), d(tt.fraction)))
		})
	}

	assertDec(t, "0.0625", DefaultRiskParameters().KellyAdvice())
}

func TestRiskParametersValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultRiskParameters().Validate())

	bad := []func(*RiskParameters){
		func(p *RiskParameters) { p.MaxRiskPercent = d("0") },
		func(p *RiskParameters) { p.WinRate = d("1.1") },
		func(p *RiskParameters) { p.WinRate = d("-0.1") },
		func(p *RiskParameters) { p.AvgWinLossRatio = d("0") },
		func(p *RiskParameters) { p.KellyFraction = d("2") },
	}
	for i, mutate := range bad {
		p := DefaultRiskParameters()
		mutate(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}
}
