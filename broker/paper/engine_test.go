package paper

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order(mode market.Mode, side market.Side, qty string) broker.OrderRequest {
	return broker.OrderRequest{
		ClientOrderID: "ord-test",
		Symbol:        "BTCUSDT",
		Side:          side,
		Kind:          market.Market,
		Quantity:      d(qty),
		Mode:          mode,
	}
}

func TestEngine_MarketBuyFills(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	e.Fund(market.Practice, d("1000"))
	e.SetMark("BTCUSDT", d("100"))

	resp, err := e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Buy, "2"))
	require.NoError(t, err)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, http.StatusCreated, resp.HTTPStatus)
	assert.True(t, strings.HasPrefix(resp.OrderID, "paper-"))

	bal, err := e.GetAccountBalance(ctx, market.Practice)
	require.NoError(t, err)
	assert.True(t, bal.QuoteBalance.Equal(d("800")))
	assert.True(t, bal.Asset("BTC").Equal(d("2")))

	o, err := e.Order(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusFilled, o.Status)
	assert.True(t, o.Price.Equal(d("100")))
}

func TestEngine_ModesAreSeparate(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	e.Fund(market.Practice, d("1000"))
	e.SetMark("BTCUSDT", d("100"))

	resp, err := e.SubmitOrder(ctx, market.Real, order(market.Real, market.Buy, "1"))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.HTTPStatus)
	assert.Contains(t, resp.Message, "insufficient real balance")

	realBal, err := e.GetAccountBalance(ctx, market.Real)
	require.NoError(t, err)
	assert.True(t, realBal.QuoteBalance.IsZero())
}

func TestEngine_SellNeedsAsset(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	e.SetMark("BTCUSDT", d("100"))
	e.Deposit(market.Practice, "btc", d("1"))

	resp, err := e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Sell, "1.5"))
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.HTTPStatus)

	resp, err = e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Sell, "1"))
	require.NoError(t, err)
	require.True(t, resp.Success)

	bal, _ := e.GetAccountBalance(ctx, market.Practice)
	assert.True(t, bal.QuoteBalance.Equal(d("100")))
	assert.True(t, bal.Asset("BTC").IsZero())
}

func TestEngine_LimitRestsAndCancels(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	e.Fund(market.Practice, d("500"))

	price := d("50")
	req := order(market.Practice, market.Buy, "4")
	req.Kind = market.Limit
	req.LimitPrice = &price

	resp, err := e.SubmitOrder(ctx, market.Practice, req)
	require.NoError(t, err)
	require.True(t, resp.Success)

	o, err := e.Order(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, o.Status)

	bal, _ := e.GetAccountBalance(ctx, market.Practice)
	assert.True(t, bal.QuoteBalance.Equal(d("300")))
	assert.True(t, bal.Asset("BTC").IsZero())

	require.NoError(t, e.CancelOrder(ctx, resp.OrderID))
	bal, _ = e.GetAccountBalance(ctx, market.Practice)
	assert.True(t, bal.QuoteBalance.Equal(d("500")))

	assert.Error(t, e.CancelOrder(ctx, resp.OrderID))
	assert.ErrorIs(t, e.CancelOrder(ctx, "missing"), ErrOrderNotFound)
}

func TestEngine_RejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	e.Fund(market.Practice, d("1000"))

	resp, err := e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Buy, "1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.HTTPStatus, "no mark")

	resp, err = e.SubmitOrder(ctx, market.Real, order(market.Practice, market.Buy, "1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.HTTPStatus)

	resp, err = e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Buy, "0"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.HTTPStatus)

	assert.Equal(t, 3, e.SubmitCalls())
	assert.Empty(t, e.Orders())
}

func TestEngine_SessionExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	e := NewEngine(WithSessionTTL(time.Minute), WithClock(func() time.Time { return now }))
	e.Fund(market.Practice, d("1000"))
	e.SetMark("BTCUSDT", d("100"))

	assert.True(t, e.SessionValid())

	now = now.Add(2 * time.Minute)
	assert.False(t, e.SessionValid())

	resp, err := e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Buy, "1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.HTTPStatus)
	assert.False(t, resp.Success)

	e.Login()
	assert.True(t, e.SessionValid())
	e.InvalidateSession()
	assert.False(t, e.SessionValid())
}

func TestEngine_Volatility(t *testing.T) {
	e := NewEngine()
	_, err := e.GetVolatilityEstimate(context.Background(), "ETHUSDT")
	assert.ErrorIs(t, err, ErrNoVolatility)

	e.SetVolatility("ethusdt", d("12.5"))
	v, err := e.GetVolatilityEstimate(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.True(t, v.Equal(d("12.5")))
}

func TestEngine_CancelledContext(t *testing.T) {
	e := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Buy, "1"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, e.SubmitCalls())
}

func TestEngine_OrdersSorted(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	e.Fund(market.Practice, d("10000"))
	e.SetMark("BTCUSDT", d("10"))

	var ids []string
	for i := 0; i < 5; i++ {
		resp, err := e.SubmitOrder(ctx, market.Practice, order(market.Practice, market.Buy, "1"))
		require.NoError(t, err)
		ids = append(ids, resp.OrderID)
	}

	got := e.Orders()
	require.Len(t, got, 5)
	for i, o := range got {
		assert.Equal(t, ids[i], o.ID)
	}
}
