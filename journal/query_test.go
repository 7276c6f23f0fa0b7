package journal

import (
	"testing"
	"time"

	"github.com/rustyeddy/riskexec/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrder(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	at := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	c := testCandidate(t, "ETHUSDT", market.Short)
	want := NewOrderRecord(c, market.Real, "O-short", at)
	require.NoError(t, j.RecordOrder(want))

	got, err := j.GetOrder("O-short")
	require.NoError(t, err)

	assert.Equal(t, want.OrderID, got.OrderID)
	assert.Equal(t, "cand-ETHUSDT", got.CandidateID)
	assert.Equal(t, "ETHUSDT", got.Symbol)
	assert.Equal(t, market.Sell, got.Side)
	assert.Equal(t, market.Market, got.Kind)
	assert.Equal(t, market.Real, got.Mode)
	assert.True(t, got.Quantity.Equal(want.Quantity))
	assert.True(t, got.Entry.Equal(d("100")))
	assert.True(t, got.StopLoss.Equal(d("105")))
	assert.True(t, got.TakeProfit.Equal(d("85")))
	assert.True(t, got.Notional.Equal(d("200")))
	assert.True(t, got.DollarRisk.Equal(d("10")))
	assert.True(t, got.RR.Equal(d("3")))
	assert.True(t, got.RiskPct.Equal(d("1")))
	assert.True(t, got.AcceptedAt.Equal(at))
}

func TestGetOrderNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetOrder("nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	recs := []OrderRecord{
		record(t, "O4", "BTCUSDT", market.Practice, base.Add(24*time.Hour)),
		record(t, "O1", "BTCUSDT", market.Practice, base.Add(1*time.Hour)),
		record(t, "O2", "ETHUSDT", market.Real, base.Add(5*time.Hour)),
		record(t, "O3", "BTCUSDT", market.Real, base.Add(10*time.Hour)),
	}
	for _, r := range recs {
		require.NoError(t, j.RecordOrder(r))
	}

	ids := func(rs []OrderRecord) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.OrderID)
		}
		return out
	}

	all, err := j.ListOrders(Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"O1", "O2", "O3", "O4"}, ids(all))

	window, err := j.ListOrders(Filter{Since: base.Add(3 * time.Hour), Until: base.Add(12 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{"O2", "O3"}, ids(window))

	realOrders, err := j.ListOrders(Filter{Mode: market.Real})
	require.NoError(t, err)
	assert.Equal(t, []string{"O2", "O3"}, ids(realOrders))

	btc, err := j.ListOrders(Filter{Symbol: "btcusdt", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"O1", "O3"}, ids(btc))

	none, err := j.ListOrders(Filter{Symbol: "SOLUSDT"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
