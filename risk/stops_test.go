package risk

import (
	"testing"

	"github.com/rustyeddy/riskexec/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		dir    market.Direction
		entry  string
		vol    string
		sl, tp string
	}{
		{"long", market.Long, "100", "2", "97", "109"},
		{"short", market.Short, "100", "2", "103", "91"},
		{"fractional", market.Long, "1.0850", "0.0012", "1.0832", "1.0904"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lv, err := DefaultLevels(d(tt.entry), tt.dir, d(tt.vol))
			require.NoError(t, err)
			assertDec(t, tt.sl, lv.StopLoss)
			assertDec(t, tt.tp, lv.TakeProfit)
		})
	}
}

func TestDefaultLevels_ThreeToOne(t *testing.T) {
	t.Parallel()

	entry := d("100")
	for _, dir := range []market.Direction{market.Long, market.Short} {
		lv, err := DefaultLevels(entry, dir, d("2"))
		require.NoError(t, err)
		rr := RR(RiskPerUnit(dir, entry, lv.StopLoss), RewardPerUnit(dir, entry, lv.TakeProfit))
		assertDec(t, "3", rr)
	}
}

func TestDefaultLevels_DirectionSwitchRederives(t *testing.T) {
	t.Parallel()

	long, err := DefaultLevels(d("100"), market.Long, d("2"))
	require.NoError(t, err)
	short, err := DefaultLevels(d("100"), market.Short, d("2"))
	require.NoError(t, err)

	// not a swap of the long levels
	assert.False(t, short.StopLoss.Equal(long.TakeProfit))
	assertDec(t, "103", short.StopLoss)
}

func TestDefaultLevels_Errors(t *testing.T) {
	t.Parallel()

	_, err := DefaultLevels(d("100"), market.Long, d("0"))
	assert.ErrorIs(t, err, ErrNoVolatility)

	_, err = DefaultLevels(d("100"), market.Long, d("-1"))
	assert.ErrorIs(t, err, ErrNoVolatility)

	_, err = DefaultLevels(d("0"), market.Long, d("1"))
	assert.Error(t, err)

	_, err = DefaultLevels(d("100"), market.DirectionUnknown, d("1"))
	assert.Error(t, err)

	// target would fall below zero
	_, err = DefaultLevels(d("10"), market.Short, d("4"))
	assert.Error(t, err)
}
