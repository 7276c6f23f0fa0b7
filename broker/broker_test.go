package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderRequestValidate(t *testing.T) {
	t.Parallel()

	price := d("100")
	base := OrderRequest{
		ClientOrderID: "x",
		Symbol:        "BTCUSDT",
		Side:          market.Buy,
		Kind:          market.Market,
		Quantity:      d("2"),
		Mode:          market.Practice,
	}

	tests := []struct {
		name    string
		mutate  func(*OrderRequest)
		wantErr bool
	}{
		{"market ok", func(r *OrderRequest) {}, false},
		{"market with price", func(r *OrderRequest) { r.LimitPrice = &price }, true},
		{"limit ok", func(r *OrderRequest) { r.Kind = market.Limit; r.LimitPrice = &price }, false},
		{"limit without price", func(r *OrderRequest) { r.Kind = market.Limit }, true},
		{"limit with stop", func(r *OrderRequest) { r.Kind = market.Limit; r.LimitPrice = &price; r.StopLoss = &price }, true},
		{"bracket ok", func(r *OrderRequest) {
			r.Kind = market.OcoBracket
			r.LimitPrice, r.StopLoss, r.TakeProfit = &price, &price, &price
		}, false},
		{"bracket missing target", func(r *OrderRequest) {
			r.Kind = market.OcoBracket
			r.LimitPrice, r.StopLoss = &price, &price
		}, true},
		{"zero quantity", func(r *OrderRequest) { r.Quantity = decimal.Zero }, true},
		{"no symbol", func(r *OrderRequest) { r.Symbol = "" }, true},
		{"bad side", func(r *OrderRequest) { r.Side = "Hold" }, true},
		{"bad mode", func(r *OrderRequest) { r.Mode = "sandbox" }, true},
		{"bad kind", func(r *OrderRequest) { r.Kind = "Stop" }, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := base
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrder)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewOrderRequest(t *testing.T) {
	t.Parallel()

	sig, err := market.NewSignal("ethusdt", market.Short, d("2000"), nil, nil, 70)
	require.NoError(t, err)

	c := risk.Candidate{
		Signal: sig,
		Levels: risk.Levels{StopLoss: d("2100"), TakeProfit: d("1700")},
		Size:   risk.PositionSizeResult{Quantity: d("0.5")},
	}

	req := NewOrderRequest("cid-1", c, market.Real)
	assert.Equal(t, market.Market, req.Kind)
	assert.Equal(t, market.Sell, req.Side)
	assert.Equal(t, "ETHUSDT", req.Symbol)
	assert.Nil(t, req.LimitPrice)
	require.NoError(t, req.Validate())

	c.Kind = market.OcoBracket
	req = NewOrderRequest("cid-2", c, market.Practice)
	require.NoError(t, req.Validate())
	assert.True(t, req.LimitPrice.Equal(d("2000")))
	assert.True(t, req.StopLoss.Equal(d("2100")))
	assert.True(t, req.TakeProfit.Equal(d("1700")))
	assert.Equal(t, market.Practice, req.Mode)
}

type stubAccounts struct {
	bal AccountBalance
	err error
}

func (s stubAccounts) GetAccountBalance(context.Context, market.Mode) (AccountBalance, error) {
	return s.bal, s.err
}

func TestLoadAccountContext(t *testing.T) {
	t.Parallel()

	p := stubAccounts{bal: AccountBalance{
		QuoteBalance:  d("1500"),
		AssetBalances: map[string]decimal.Decimal{"BTC": d("0.25"), "ETH": d("3")},
	}}

	acct, err := LoadAccountContext(context.Background(), p, market.Practice, "BTC_USDT")
	require.NoError(t, err)
	assert.Equal(t, market.Practice, acct.Mode)
	assert.True(t, acct.Balance.Equal(d("1500")))
	assert.True(t, acct.AssetBalance.Equal(d("0.25")))

	acct, err = LoadAccountContext(context.Background(), p, market.Real, "SOLUSDT")
	require.NoError(t, err)
	assert.True(t, acct.AssetBalance.IsZero())

	boom := errors.New("boom")
	_, err = LoadAccountContext(context.Background(), stubAccounts{err: boom}, market.Real, "SOLUSDT")
	assert.ErrorIs(t, err, boom)
}
