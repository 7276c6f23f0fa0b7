package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/indicators"
	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
)

// Granularity is the bar size requested for candles.
type Granularity string

const (
	M1  Granularity = "M1"
	M5  Granularity = "M5"
	M15 Granularity = "M15"
	H1  Granularity = "H1"
	H4  Granularity = "H4"
	D   Granularity = "D"
)

const (
	maxCandles   = 5000
	maxErrorBody = 64 * 1024
)

// Config selects the per-mode base URLs. Practice and real endpoints take
// the same request shape.
type Config struct {
	PracticeURL string
	RealURL     string
	Timeout     time.Duration

	// Granularity and ATRPeriod drive GetVolatilityEstimate.
	Granularity Granularity
	ATRPeriod   int
}

// Client talks to a REST venue. It implements broker.Venue.
type Client struct {
	baseURLs    map[market.Mode]string
	session     *TokenSession
	httpClient  *http.Client
	granularity Granularity
	atrPeriod   int
}

var (
	_ broker.Venue       = (*Client)(nil)
	_ broker.ModeChecker = (*Client)(nil)
)

// NewClient creates a REST venue client. A zero timeout defaults to 30s.
func NewClient(cfg Config, session *TokenSession) (*Client, error) {
	if session == nil {
		return nil, errors.New("session is required")
	}
	urls := map[market.Mode]string{}
	for mode, raw := range map[market.Mode]string{market.Practice: cfg.PracticeURL, market.Real: cfg.RealURL} {
		if raw == "" {
			continue
		}
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, fmt.Errorf("%s url: %w", mode, err)
		}
		urls[mode] = strings.TrimRight(raw, "/")
	}
	if len(urls) == 0 {
		return nil, errors.New("at least one of practice or real url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	granularity := cfg.Granularity
	if granularity == "" {
		granularity = H1
	}
	period := cfg.ATRPeriod
	if period <= 0 {
		period = 14
	}

	return &Client{
		baseURLs:    urls,
		session:     session,
		httpClient:  &http.Client{Timeout: timeout},
		granularity: granularity,
		atrPeriod:   period,
	}, nil
}

func (c *Client) SessionValid() bool { return c.session.SessionValid() }

func (c *Client) InvalidateSession() { c.session.InvalidateSession() }

// CheckMode reports broker.ErrModeUnavailable for a mode with no base URL.
func (c *Client) CheckMode(mode market.Mode) error {
	_, err := c.baseURL(mode)
	return err
}

func (c *Client) baseURL(mode market.Mode) (string, error) {
	u, ok := c.baseURLs[mode]
	if !ok {
		return "", fmt.Errorf("%w: %s", broker.ErrModeUnavailable, mode)
	}
	return u, nil
}

// dataURL is the endpoint used for market data, which does not depend on the
// trading mode.
func (c *Client) dataURL() string {
	if u, ok := c.baseURLs[market.Practice]; ok {
		return u
	}
	return c.baseURLs[market.Real]
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

type orderResponse struct {
	OrderID string `json:"orderId"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SubmitOrder posts the order once. Every HTTP answer becomes a
// SubmitResponse; only a request that got no answer returns an error.
func (c *Client) SubmitOrder(ctx context.Context, mode market.Mode, order broker.OrderRequest) (broker.SubmitResponse, error) {
	base, err := c.baseURL(mode)
	if err != nil {
		return broker.SubmitResponse{}, err
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return broker.SubmitResponse{}, fmt.Errorf("encode order: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, base+"/api/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return broker.SubmitResponse{}, err
	}
	req.Header.Set("Idempotency-Key", order.ClientOrderID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return broker.SubmitResponse{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	out := broker.SubmitResponse{
		HTTPStatus: resp.StatusCode,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
	}

	var parsed orderResponse
	jsonErr := json.Unmarshal(body, &parsed)

	if out.Success {
		if jsonErr != nil || parsed.OrderID == "" {
			// The order may have been placed; report it as accepted under
			// the id we sent so it can be reconciled.
			out.OrderID = order.ClientOrderID
			return out, nil
		}
		out.OrderID = parsed.OrderID
		return out, nil
	}

	switch {
	case jsonErr == nil && parsed.Message != "":
		out.Message = parsed.Message
	case jsonErr == nil && parsed.Error != "":
		out.Message = parsed.Error
	default:
		out.Message = strings.TrimSpace(string(body))
	}
	if out.Message == "" {
		out.Message = http.StatusText(resp.StatusCode)
	}
	return out, nil
}

type balanceResponse struct {
	QuoteBalance decimal.Decimal            `json:"quoteBalance"`
	Assets       map[string]decimal.Decimal `json:"assets"`
}

func (c *Client) GetAccountBalance(ctx context.Context, mode market.Mode) (broker.AccountBalance, error) {
	base, err := c.baseURL(mode)
	if err != nil {
		return broker.AccountBalance{}, err
	}

	var br balanceResponse
	if err := c.getJSON(ctx, base+"/api/v1/account/balance", &br); err != nil {
		return broker.AccountBalance{}, err
	}

	assets := make(map[string]decimal.Decimal, len(br.Assets))
	for k, v := range br.Assets {
		assets[strings.ToUpper(k)] = v
	}
	return broker.AccountBalance{QuoteBalance: br.QuoteBalance, AssetBalances: assets}, nil
}

// CandlesRequest selects the most recent Count closed candles.
type CandlesRequest struct {
	Symbol      string
	Granularity Granularity
	Count       int
}

type candleData struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type apiCandle struct {
	Complete bool       `json:"complete"`
	Volume   float64    `json:"volume"`
	Time     string     `json:"time"`
	Mid      candleData `json:"mid"`
}

type candlesResponse struct {
	Symbol      string      `json:"symbol"`
	Granularity string      `json:"granularity"`
	Candles     []apiCandle `json:"candles"`
}

// GetCandles fetches closed candles, oldest first. Incomplete bars are
// skipped.
func (c *Client) GetCandles(ctx context.Context, req CandlesRequest) ([]market.Candle, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if req.Granularity == "" {
		req.Granularity = c.granularity
	}
	if req.Count <= 0 || req.Count > maxCandles {
		return nil, fmt.Errorf("count must be between 1 and %d, got %d", maxCandles, req.Count)
	}

	params := url.Values{}
	params.Set("granularity", string(req.Granularity))
	params.Set("count", strconv.Itoa(req.Count))
	apiURL := fmt.Sprintf("%s/api/v1/instruments/%s/candles?%s",
		c.dataURL(), url.PathEscape(strings.ToUpper(req.Symbol)), params.Encode())

	var cr candlesResponse
	if err := c.getJSON(ctx, apiURL, &cr); err != nil {
		return nil, err
	}

	candles := make([]market.Candle, 0, len(cr.Candles))
	for _, ac := range cr.Candles {
		if !ac.Complete {
			continue
		}
		t, err := time.Parse(time.RFC3339, ac.Time)
		if err != nil {
			return nil, fmt.Errorf("parse time %s: %w", ac.Time, err)
		}

		var ohlc [4]float64
		for i, s := range []string{ac.Mid.O, ac.Mid.H, ac.Mid.L, ac.Mid.C} {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse price %q: %w", s, err)
			}
			ohlc[i] = v
		}

		candles = append(candles, market.Candle{
			Time:   t,
			Open:   ohlc[0],
			High:   ohlc[1],
			Low:    ohlc[2],
			Close:  ohlc[3],
			Volume: ac.Volume,
		})
	}
	return candles, nil
}

// GetVolatilityEstimate returns the ATR of the configured granularity and
// period, in price units.
func (c *Client) GetVolatilityEstimate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	candles, err := c.GetCandles(ctx, CandlesRequest{
		Symbol:      symbol,
		Granularity: c.granularity,
		Count:       c.atrPeriod * 3,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("volatility for %s: %w", symbol, err)
	}
	atr, err := indicators.ATRFunc(candles, c.atrPeriod)
	if err != nil {
		return decimal.Zero, fmt.Errorf("volatility for %s: %w", symbol, err)
	}
	return decimal.NewFromFloat(atr), nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// APIError is a non-200 answer to a read request.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Body)
}
