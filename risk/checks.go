package risk

import (
	"strings"

	"github.com/rustyeddy/riskexec/market"
	"github.com/shopspring/decimal"
)

// Candidate is a signal with resolved levels and a computed size, evaluated
// against one account snapshot.
type Candidate struct {
	ID      string
	Signal  market.Signal
	Levels  Levels
	Size    PositionSizeResult
	Account market.AccountContext
	Kind    market.OrderKind
}

func (c Candidate) Side() market.Side { return c.Signal.Direction.Side() }

type ReasonCode string

const (
	CodeInvalidInput        ReasonCode = "INVALID_INPUT"
	CodeRRTooLow            ReasonCode = "RR_TOO_LOW"
	CodeRiskTooHigh         ReasonCode = "RISK_TOO_HIGH"
	CodeInvalidStop         ReasonCode = "INVALID_STOP"
	CodeInvalidTarget       ReasonCode = "INVALID_TARGET"
	CodeZeroSize            ReasonCode = "ZERO_SIZE"
	CodeInsufficientBalance ReasonCode = "INSUFFICIENT_BALANCE"
)

type Reason struct {
	Code ReasonCode
	Msg  string
}

// Verdict is Accepted when Reasons is empty. Reasons keep a fixed order so
// identical candidates always produce identical verdicts.
type Verdict struct {
	Accepted bool
	Reasons  []Reason

	PlannedRR      decimal.Decimal
	PlannedRiskPct decimal.Decimal

	// KellySuggested is informational (fraction of balance).
	KellySuggested decimal.Decimal
}

func (v *Verdict) add(code ReasonCode, msg string) {
	v.Reasons = append(v.Reasons, Reason{Code: code, Msg: msg})
	v.Accepted = false
}

// Messages returns the reason texts in order.
func (v Verdict) Messages() []string {
	out := make([]string, 0, len(v.Reasons))
	for _, r := range v.Reasons {
		out = append(out, r.Msg)
	}
	return out
}

func (v Verdict) Has(code ReasonCode) bool {
	for _, r := range v.Reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

func (v Verdict) String() string {
	if v.Accepted {
		return "accepted"
	}
	return "rejected: " + strings.Join(v.Messages(), "; ")
}

// Evaluate checks every rule independently and collects all failures.
func Evaluate(c Candidate, p RiskParameters) Verdict {
	v := Verdict{
		Accepted:       true,
		PlannedRR:      c.Size.RiskRewardRatio,
		PlannedRiskPct: c.Size.PercentOfBalanceAtRisk,
		KellySuggested: p.KellyAdvice(),
	}

	issue := c.Size.InputIssue
	if issue == "" {
		if err := c.Signal.Validate(); err != nil {
			issue = err.Error()
		} else if err := c.Account.Validate(); err != nil {
			issue = err.Error()
		}
	}
	if issue != "" {
		// Nothing else is meaningful for unusable inputs.
		v.add(CodeInvalidInput, "invalid input: "+issue)
		v.add(CodeZeroSize, "position size is zero")
		return v
	}

	s := c.Size
	if s.RiskRewardRatio.LessThan(MinRewardRisk) {
		v.add(CodeRRTooLow, "reward:risk below minimum 2:1")
	}
	if s.PercentOfBalanceAtRisk.GreaterThan(MaxRiskPctPerTrade) {
		v.add(CodeRiskTooHigh, "risk per trade exceeds 2% cap")
	}
	if !s.RiskPerUnit.IsPositive() {
		v.add(CodeInvalidStop, "invalid stop placement")
	}
	if !s.RewardPerUnit.IsPositive() {
		v.add(CodeInvalidTarget, "invalid take-profit placement")
	}
	if !s.Quantity.IsPositive() {
		v.add(CodeZeroSize, "position size is zero")
	}

	switch c.Side() {
	case market.Buy:
		if s.Notional.GreaterThan(c.Account.Balance) {
			v.add(CodeInsufficientBalance, "insufficient balance")
		}
	case market.Sell:
		if s.Quantity.GreaterThan(c.Account.AssetBalance) {
			v.add(CodeInsufficientBalance, "insufficient balance")
		}
	}

	return v
}
