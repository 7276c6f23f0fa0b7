package paper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/pkg/id"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrNoVolatility  = errors.New("no volatility estimate")
)

type OrderStatus string

const (
	StatusFilled    OrderStatus = "filled"
	StatusOpen      OrderStatus = "open"
	StatusCancelled OrderStatus = "cancelled"
)

// Order is an order the engine accepted.
type Order struct {
	ID       string
	Request  broker.OrderRequest
	Status   OrderStatus
	Price    decimal.Decimal
	Created  time.Time
	Modified time.Time
}

// Engine is an in-memory venue. Market orders fill immediately at the
// symbol's mark and move balances. Limit and bracket orders rest as open
// orders with their funds reserved.
type Engine struct {
	mu         sync.Mutex
	balances   map[market.Mode]*broker.AccountBalance
	marks      map[string]decimal.Decimal
	volatility map[string]decimal.Decimal
	orders     map[string]*Order
	ids        *id.Generator
	now        func() time.Time

	sessionValid bool
	sessionTTL   time.Duration
	expiresAt    time.Time
	calls        int
}

type Option func(*Engine)

// WithSessionTTL makes the session lapse ttl after creation, so callers can
// exercise the expired-session path.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.sessionTTL = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		balances:     map[market.Mode]*broker.AccountBalance{},
		marks:        map[string]decimal.Decimal{},
		volatility:   map[string]decimal.Decimal{},
		orders:       map[string]*Order{},
		ids:          id.NewGenerator(),
		now:          time.Now,
		sessionValid: true,
	}
	for _, o := range opts {
		o(e)
	}
	if e.sessionTTL > 0 {
		e.expiresAt = e.now().Add(e.sessionTTL)
	}
	return e
}

var _ broker.Venue = (*Engine)(nil)

// Fund sets the quote balance for mode.
func (e *Engine) Fund(mode market.Mode, quote decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(mode).QuoteBalance = quote
}

// Deposit sets the balance of asset for mode.
func (e *Engine) Deposit(mode market.Mode, asset string, qty decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.account(mode).AssetBalances[strings.ToUpper(asset)] = qty
}

func (e *Engine) SetMark(symbol string, price decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.marks[strings.ToUpper(symbol)] = price
}

func (e *Engine) SetVolatility(symbol string, v decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volatility[strings.ToUpper(symbol)] = v
}

func (e *Engine) account(mode market.Mode) *broker.AccountBalance {
	a, ok := e.balances[mode]
	if !ok {
		a = &broker.AccountBalance{AssetBalances: map[string]decimal.Decimal{}}
		e.balances[mode] = a
	}
	return a
}

func (e *Engine) GetVolatilityEstimate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.volatility[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrNoVolatility, symbol)
	}
	return v, nil
}

// GetAccountBalance returns a copy; later fills do not change it.
func (e *Engine) GetAccountBalance(ctx context.Context, mode market.Mode) (broker.AccountBalance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.account(mode)
	out := broker.AccountBalance{
		QuoteBalance:  a.QuoteBalance,
		AssetBalances: make(map[string]decimal.Decimal, len(a.AssetBalances)),
	}
	for k, v := range a.AssetBalances {
		out.AssetBalances[k] = v
	}
	return out, nil
}

func (e *Engine) SessionValid() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionValidLocked()
}

func (e *Engine) sessionValidLocked() bool {
	if !e.sessionValid {
		return false
	}
	return e.expiresAt.IsZero() || e.now().Before(e.expiresAt)
}

func (e *Engine) InvalidateSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionValid = false
}

// Login restores the session and clears any expiry.
func (e *Engine) Login() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessionValid = true
	e.expiresAt = time.Time{}
}

// SubmitCalls counts SubmitOrder invocations.
func (e *Engine) SubmitCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func reject(status int, format string, args ...any) broker.SubmitResponse {
	return broker.SubmitResponse{HTTPStatus: status, Message: fmt.Sprintf(format, args...)}
}

// SubmitOrder answers the way an HTTP venue would: 401 when the session has
// lapsed, 400 for malformed orders and 422 when funds are short.
func (e *Engine) SubmitOrder(ctx context.Context, mode market.Mode, req broker.OrderRequest) (broker.SubmitResponse, error) {
	if err := ctx.Err(); err != nil {
		return broker.SubmitResponse{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++

	if !e.sessionValidLocked() {
		return reject(http.StatusUnauthorized, "session expired"), nil
	}
	if req.Mode != mode {
		return reject(http.StatusBadRequest, "order mode %s does not match endpoint %s", req.Mode, mode), nil
	}
	if err := req.Validate(); err != nil {
		return reject(http.StatusBadRequest, "%s", err), nil
	}

	symbol := strings.ToUpper(req.Symbol)
	price := e.marks[symbol]
	if req.LimitPrice != nil {
		price = *req.LimitPrice
	}
	if req.Kind == market.Market && !price.IsPositive() {
		return reject(http.StatusConflict, "no market price for %s", symbol), nil
	}

	acct := e.account(mode)
	base := market.BaseAsset(symbol)
	notional := req.Quantity.Mul(price)

	switch req.Side {
	case market.Buy:
		if notional.GreaterThan(acct.QuoteBalance) {
			return reject(http.StatusUnprocessableEntity, "insufficient %s balance: need %s, have %s",
				mode, notional.StringFixed(2), acct.QuoteBalance.StringFixed(2)), nil
		}
		acct.QuoteBalance = acct.QuoteBalance.Sub(notional)
		if req.Kind == market.Market {
			acct.AssetBalances[base] = acct.AssetBalances[base].Add(req.Quantity)
		}
	case market.Sell:
		held := acct.AssetBalances[base]
		if req.Quantity.GreaterThan(held) {
			return reject(http.StatusUnprocessableEntity, "insufficient %s %s: need %s, have %s",
				mode, base, req.Quantity, held), nil
		}
		acct.AssetBalances[base] = held.Sub(req.Quantity)
		if req.Kind == market.Market {
			acct.QuoteBalance = acct.QuoteBalance.Add(notional)
		}
	}

	now := e.now()
	o := &Order{
		ID:       e.ids.WithPrefix("paper"),
		Request:  req,
		Status:   StatusOpen,
		Price:    price,
		Created:  now,
		Modified: now,
	}
	if req.Kind == market.Market {
		o.Status = StatusFilled
	}
	e.orders[o.ID] = o

	return broker.SubmitResponse{Success: true, OrderID: o.ID, HTTPStatus: http.StatusCreated}, nil
}

// CancelOrder releases the funds reserved by an open order.
func (e *Engine) CancelOrder(ctx context.Context, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return fmt.Errorf("cancel order: %w: %q", ErrOrderNotFound, orderID)
	}
	if o.Status != StatusOpen {
		return fmt.Errorf("cancel order %q: status is %s", orderID, o.Status)
	}

	acct := e.account(o.Request.Mode)
	switch o.Request.Side {
	case market.Buy:
		acct.QuoteBalance = acct.QuoteBalance.Add(o.Request.Quantity.Mul(o.Price))
	case market.Sell:
		base := market.BaseAsset(o.Request.Symbol)
		acct.AssetBalances[base] = acct.AssetBalances[base].Add(o.Request.Quantity)
	}
	o.Status = StatusCancelled
	o.Modified = e.now()
	return nil
}

func (e *Engine) Order(orderID string) (Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[orderID]
	if !ok {
		return Order{}, fmt.Errorf("%w: %q", ErrOrderNotFound, orderID)
	}
	return *o, nil
}

// Orders lists accepted orders oldest first.
func (e *Engine) Orders() []Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Order, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
