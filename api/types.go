package api

import (
	"encoding/json"
	"time"

	"github.com/rustyeddy/riskexec/execution"
	"github.com/rustyeddy/riskexec/journal"
	"github.com/shopspring/decimal"
)

// PlanRequest is the body of POST /api/v1/plan. Signal is parsed with
// market.ParseSignal, so prices may be numbers or strings.
type PlanRequest struct {
	Signal     json.RawMessage     `json:"signal"`
	Mode       string              `json:"mode,omitempty"`      // defaults to the server's mode
	Sizing     string              `json:"sizing,omitempty"`    // risk or percent
	Percent    decimal.NullDecimal `json:"percent,omitempty"`   // percent sizing only
	OrderType  string              `json:"orderType,omitempty"` // market, limit or oco
	StopLoss   decimal.NullDecimal `json:"stopLoss,omitempty"`
	TakeProfit decimal.NullDecimal `json:"takeProfit,omitempty"`
	Volatility decimal.NullDecimal `json:"volatility,omitempty"` // paper venue only
}

type ReasonInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlanResponse is a stored plan. CandidateID is what POST /api/v1/orders
// takes.
type PlanResponse struct {
	CandidateID string `json:"candidateId"`
	Symbol      string `json:"symbol"`
	Direction   string `json:"direction"`
	Side        string `json:"side"`
	Mode        string `json:"mode"`
	OrderType   string `json:"orderType"`

	Entry        decimal.Decimal `json:"entry"`
	StopLoss     decimal.Decimal `json:"stopLoss"`
	TakeProfit   decimal.Decimal `json:"takeProfit"`
	LevelsSource string          `json:"levelsSource"`
	Volatility   decimal.Decimal `json:"volatility"`

	Sizing       string          `json:"sizing"`
	Quantity     decimal.Decimal `json:"quantity"`
	Notional     decimal.Decimal `json:"notional"`
	DollarRisk   decimal.Decimal `json:"dollarRisk"`
	DollarReward decimal.Decimal `json:"dollarReward"`

	Accepted       bool            `json:"accepted"`
	Reasons        []ReasonInfo    `json:"reasons"`
	RR             decimal.Decimal `json:"rr"`
	RiskPct        decimal.Decimal `json:"riskPct"`
	KellySuggested decimal.Decimal `json:"kellySuggested"`
}

func newPlanResponse(p execution.Plan) PlanResponse {
	c, v := p.Candidate, p.Verdict
	reasons := make([]ReasonInfo, 0, len(v.Reasons))
	for _, r := range v.Reasons {
		reasons = append(reasons, ReasonInfo{Code: string(r.Code), Message: r.Msg})
	}
	return PlanResponse{
		CandidateID:    c.ID,
		Symbol:         c.Signal.Symbol,
		Direction:      c.Signal.Direction.String(),
		Side:           string(c.Side()),
		Mode:           string(c.Account.Mode),
		OrderType:      string(c.Kind),
		Entry:          c.Signal.Entry,
		StopLoss:       c.Levels.StopLoss,
		TakeProfit:     c.Levels.TakeProfit,
		LevelsSource:   string(p.LevelsSource),
		Volatility:     p.Volatility,
		Sizing:         string(c.Size.Method),
		Quantity:       c.Size.Quantity,
		Notional:       c.Size.Notional,
		DollarRisk:     c.Size.DollarRisk,
		DollarReward:   c.Size.DollarReward,
		Accepted:       v.Accepted,
		Reasons:        reasons,
		RR:             v.PlannedRR,
		RiskPct:        v.PlannedRiskPct,
		KellySuggested: v.KellySuggested,
	}
}

// SubmitRequest is the body of POST /api/v1/orders.
type SubmitRequest struct {
	CandidateID string `json:"candidateId"`
	Mode        string `json:"mode,omitempty"` // defaults to the plan's mode
}

type SubmitResponse struct {
	CandidateID   string       `json:"candidateId"`
	State         string       `json:"state"`
	OrderID       string       `json:"orderId,omitempty"`
	ClientOrderID string       `json:"clientOrderId,omitempty"`
	HTTPStatus    int          `json:"venueStatus,omitempty"`
	Message       string       `json:"message"`
	Reasons       []ReasonInfo `json:"reasons,omitempty"`
}

func newSubmitResponse(candidateID string, out execution.Outcome) SubmitResponse {
	resp := SubmitResponse{
		CandidateID:   candidateID,
		State:         out.State.String(),
		OrderID:       out.OrderID,
		ClientOrderID: out.ClientOrderID,
		HTTPStatus:    out.HTTPStatus,
		Message:       out.String(),
	}
	for _, r := range out.Verdict.Reasons {
		resp.Reasons = append(resp.Reasons, ReasonInfo{Code: string(r.Code), Message: r.Msg})
	}
	return resp
}

// OrderInfo is a journaled order.
type OrderInfo struct {
	OrderID     string          `json:"orderId"`
	CandidateID string          `json:"candidateId"`
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	OrderType   string          `json:"orderType"`
	Mode        string          `json:"mode"`
	Quantity    decimal.Decimal `json:"quantity"`
	Entry       decimal.Decimal `json:"entry"`
	StopLoss    decimal.Decimal `json:"stopLoss"`
	TakeProfit  decimal.Decimal `json:"takeProfit"`
	Notional    decimal.Decimal `json:"notional"`
	DollarRisk  decimal.Decimal `json:"dollarRisk"`
	RR          decimal.Decimal `json:"rr"`
	RiskPct     decimal.Decimal `json:"riskPct"`
	AcceptedAt  time.Time       `json:"acceptedAt"`
}

func newOrderInfo(r journal.OrderRecord) OrderInfo {
	return OrderInfo{
		OrderID:     r.OrderID,
		CandidateID: r.CandidateID,
		Symbol:      r.Symbol,
		Side:        string(r.Side),
		OrderType:   string(r.Kind),
		Mode:        string(r.Mode),
		Quantity:    r.Quantity,
		Entry:       r.Entry,
		StopLoss:    r.StopLoss,
		TakeProfit:  r.TakeProfit,
		Notional:    r.Notional,
		DollarRisk:  r.DollarRisk,
		RR:          r.RR,
		RiskPct:     r.RiskPct,
		AcceptedAt:  r.AcceptedAt,
	}
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
