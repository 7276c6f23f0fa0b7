package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
)

// VolatilityFeed supplies a per-symbol volatility estimate in price units.
type VolatilityFeed interface {
	GetVolatilityEstimate(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type AccountProvider interface {
	GetAccountBalance(ctx context.Context, mode market.Mode) (AccountBalance, error)
}

// OrderEndpoint submits one order to the endpoint for mode. A non-nil error
// means the request never produced a response (transport failure); any HTTP
// answer, success or not, comes back as a SubmitResponse.
type OrderEndpoint interface {
	SubmitOrder(ctx context.Context, mode market.Mode, req OrderRequest) (SubmitResponse, error)
}

// ErrModeUnavailable means an adapter has no endpoint for a mode.
var ErrModeUnavailable = errors.New("no endpoint configured for mode")

// ModeChecker is implemented by endpoints that serve only some modes. The
// submitter consults it before dispatch so an unserved mode is reported as a
// caller error instead of a transport failure.
type ModeChecker interface {
	CheckMode(mode market.Mode) error
}

type Session interface {
	SessionValid() bool
	InvalidateSession()
}

// OrderObserver is told about orders the venue accepted. Implementations must
// not assume they run on the caller's goroutine.
type OrderObserver interface {
	NotifyOrderAccepted(ctx context.Context, c risk.Candidate, orderID string)
}

// Venue is the full set of collaborators a venue adapter usually provides.
type Venue interface {
	VolatilityFeed
	AccountProvider
	OrderEndpoint
	Session
}

type AccountBalance struct {
	QuoteBalance  decimal.Decimal
	AssetBalances map[string]decimal.Decimal
}

// Asset returns the balance held in asset, zero when none is held.
func (b AccountBalance) Asset(asset string) decimal.Decimal {
	if v, ok := b.AssetBalances[strings.ToUpper(asset)]; ok {
		return v
	}
	return decimal.Zero
}

// AccountContextFor snapshots the balances relevant to symbol in mode.
func AccountContextFor(mode market.Mode, symbol string, b AccountBalance) market.AccountContext {
	return market.AccountContext{
		Mode:         mode,
		Balance:      b.QuoteBalance,
		AssetBalance: b.Asset(market.BaseAsset(symbol)),
	}
}

// LoadAccountContext fetches balances from p and snapshots them for symbol.
func LoadAccountContext(ctx context.Context, p AccountProvider, mode market.Mode, symbol string) (market.AccountContext, error) {
	b, err := p.GetAccountBalance(ctx, mode)
	if err != nil {
		return market.AccountContext{}, fmt.Errorf("get %s account balance: %w", mode, err)
	}
	return AccountContextFor(mode, symbol, b), nil
}

type OrderRequest struct {
	ClientOrderID string           `json:"clientOrderId"`
	Symbol        string           `json:"symbol"`
	Side          market.Side      `json:"side"`
	Kind          market.OrderKind `json:"orderType"`
	Quantity      decimal.Decimal  `json:"quantity"`
	LimitPrice    *decimal.Decimal `json:"price,omitempty"`
	StopLoss      *decimal.Decimal `json:"stopLoss,omitempty"`
	TakeProfit    *decimal.Decimal `json:"takeProfit,omitempty"`
	Mode          market.Mode      `json:"mode"`
}

var ErrInvalidOrder = errors.New("invalid order request")

// Validate enforces which optional prices each order kind carries.
func (r OrderRequest) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
	}

	if r.Symbol == "" {
		return bad("symbol is required")
	}
	if r.Side != market.Buy && r.Side != market.Sell {
		return bad("side must be Buy or Sell, got %q", r.Side)
	}
	if !r.Quantity.IsPositive() {
		return bad("quantity must be positive, got %s", r.Quantity)
	}
	if r.Mode != market.Practice && r.Mode != market.Real {
		return bad("unknown mode %q", r.Mode)
	}

	switch r.Kind {
	case market.Market:
		if r.LimitPrice != nil || r.StopLoss != nil || r.TakeProfit != nil {
			return bad("market orders carry no prices")
		}
	case market.Limit:
		if r.LimitPrice == nil {
			return bad("limit orders need a price")
		}
		if r.StopLoss != nil || r.TakeProfit != nil {
			return bad("limit orders carry no bracket levels")
		}
	case market.OcoBracket:
		if r.LimitPrice == nil || r.StopLoss == nil || r.TakeProfit == nil {
			return bad("bracket orders need price, stop loss and take profit")
		}
	default:
		return bad("unknown order kind %q", r.Kind)
	}
	return nil
}

// NewOrderRequest builds the request for a sized candidate. Limit and bracket
// orders are priced at the signal entry.
func NewOrderRequest(clientOrderID string, c risk.Candidate, mode market.Mode) OrderRequest {
	req := OrderRequest{
		ClientOrderID: clientOrderID,
		Symbol:        c.Signal.Symbol,
		Side:          c.Side(),
		Kind:          c.Kind,
		Quantity:      c.Size.Quantity,
		Mode:          mode,
	}
	if req.Kind == "" {
		req.Kind = market.Market
	}

	switch req.Kind {
	case market.Limit:
		req.LimitPrice = ptr(c.Signal.Entry)
	case market.OcoBracket:
		req.LimitPrice = ptr(c.Signal.Entry)
		req.StopLoss = ptr(c.Levels.StopLoss)
		req.TakeProfit = ptr(c.Levels.TakeProfit)
	}
	return req
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// SubmitResponse is what the venue answered. Message carries the server's
// reason text verbatim when Success is false.
type SubmitResponse struct {
	Success    bool   `json:"success"`
	OrderID    string `json:"orderId,omitempty"`
	HTTPStatus int    `json:"httpStatus"`
	Message    string `json:"message,omitempty"`
}
