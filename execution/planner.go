package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/logging"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/metrics"
	"github.com/rustyeddy/riskexec/pkg/id"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LevelsSource records where a plan's stop and target came from.
type LevelsSource string

const (
	LevelsFromSignal     LevelsSource = "signal"
	LevelsFromOverride   LevelsSource = "override"
	LevelsFromVolatility LevelsSource = "volatility"
	LevelsMixed          LevelsSource = "mixed"
)

// PlanRequest asks for a sized, validated candidate. StopLoss and TakeProfit
// override the signal's levels; levels still missing are derived from the
// volatility feed.
type PlanRequest struct {
	Signal  market.Signal
	Mode    market.Mode
	Method  risk.SizingMethod
	Percent decimal.Decimal // percent sizing only
	Kind    market.OrderKind

	StopLoss   decimal.NullDecimal
	TakeProfit decimal.NullDecimal
}

type Plan struct {
	Candidate    risk.Candidate
	Verdict      risk.Verdict
	LevelsSource LevelsSource

	// Volatility is the estimate used for derived levels, zero otherwise.
	Volatility decimal.Decimal
}

// Planner turns a signal and an account snapshot into a Plan. It never
// submits anything.
type Planner struct {
	feed     broker.VolatilityFeed
	accounts broker.AccountProvider
	params   risk.RiskParameters
	log      *zap.Logger
	metrics  *metrics.Metrics
	newID    func() string
}

type PlannerOption func(*Planner)

func PlannerLogger(l *zap.Logger) PlannerOption {
	return func(p *Planner) { p.log = logging.OrNop(l) }
}

func PlannerMetrics(m *metrics.Metrics) PlannerOption {
	return func(p *Planner) { p.metrics = m }
}

func PlannerIDs(f func() string) PlannerOption {
	return func(p *Planner) { p.newID = f }
}

func NewPlanner(feed broker.VolatilityFeed, accounts broker.AccountProvider, params risk.RiskParameters, opts ...PlannerOption) *Planner {
	p := &Planner{
		feed:     feed,
		accounts: accounts,
		params:   params,
		log:      zap.NewNop(),
		newID:    id.CandidateID,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Planner) Params() risk.RiskParameters { return p.params }

// Plan fetches a fresh account snapshot for req.Mode and plans against it.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (Plan, error) {
	if p.accounts == nil {
		return Plan{}, errors.New("no account provider configured")
	}
	acct, err := broker.LoadAccountContext(ctx, p.accounts, req.Mode, req.Signal.Symbol)
	if err != nil {
		return Plan{}, err
	}
	return p.PlanWithAccount(ctx, req, acct)
}

// PlanWithAccount plans against a caller-supplied snapshot.
//
// The returned error covers only what stops a plan from being built: a
// malformed signal, or missing levels with no volatility estimate to derive
// them (errors.Is risk.ErrNoVolatility). Policy failures are in Plan.Verdict.
func (p *Planner) PlanWithAccount(ctx context.Context, req PlanRequest, acct market.AccountContext) (Plan, error) {
	if err := req.Signal.Validate(); err != nil {
		return Plan{}, err
	}
	if req.Mode != "" && req.Mode != acct.Mode {
		return Plan{}, fmt.Errorf("%w: %s vs %s", ErrModeMismatch, req.Mode, acct.Mode)
	}

	lv, source, vol, err := p.resolveLevels(ctx, req)
	if err != nil {
		return Plan{}, err
	}

	sig := req.Signal
	var size risk.PositionSizeResult
	switch req.Method {
	case risk.SizeByBalancePct:
		size = risk.SizeByPercent(risk.PercentSizing{
			Direction: sig.Direction,
			Balance:   acct.Balance,
			Percent:   req.Percent,
			Entry:     sig.Entry,
			Levels:    lv,
		})
	case risk.SizeByRiskDistance, "":
		size = risk.SizeByRisk(risk.RiskSizing{
			Direction:      sig.Direction,
			Balance:        acct.Balance,
			MaxRiskPercent: p.params.MaxRiskPercent,
			Entry:          sig.Entry,
			Levels:         lv,
		})
	default:
		return Plan{}, fmt.Errorf("unknown sizing method %q", req.Method)
	}

	kind := req.Kind
	if kind == "" {
		kind = market.Market
	}

	c := risk.Candidate{
		ID:      p.newID(),
		Signal:  sig,
		Levels:  lv,
		Size:    size,
		Account: acct,
		Kind:    kind,
	}
	v := risk.Evaluate(c, p.params)

	codes := make([]string, 0, len(v.Reasons))
	for _, r := range v.Reasons {
		codes = append(codes, string(r.Code))
	}
	riskPct, _ := v.PlannedRiskPct.Float64()
	p.metrics.ObserveVerdict(string(acct.Mode), v.Accepted, codes, riskPct)

	p.log.Info("planned",
		zap.String("candidate", c.ID),
		zap.String("symbol", sig.Symbol),
		zap.String("mode", string(acct.Mode)),
		zap.String("levels", string(source)),
		zap.Stringer("quantity", size.Quantity),
		zap.Bool("accepted", v.Accepted),
		zap.Strings("reasons", v.Messages()),
	)

	return Plan{Candidate: c, Verdict: v, LevelsSource: source, Volatility: vol}, nil
}

func (p *Planner) resolveLevels(ctx context.Context, req PlanRequest) (risk.Levels, LevelsSource, decimal.Decimal, error) {
	sig := req.Signal
	stop, target := sig.StopLoss, sig.TakeProfit
	overridden := false
	if req.StopLoss.Valid {
		stop, overridden = req.StopLoss, true
	}
	if req.TakeProfit.Valid {
		target, overridden = req.TakeProfit, true
	}

	source := LevelsFromSignal
	if overridden {
		source = LevelsFromOverride
	}
	if stop.Valid && target.Valid {
		return risk.Levels{StopLoss: stop.Decimal, TakeProfit: target.Decimal}, source, decimal.Zero, nil
	}

	if p.feed == nil {
		return risk.Levels{}, "", decimal.Zero, fmt.Errorf("%s: %w and no volatility feed", sig.Symbol, risk.ErrNoVolatility)
	}
	vol, err := p.feed.GetVolatilityEstimate(ctx, sig.Symbol)
	if err != nil {
		return risk.Levels{}, "", decimal.Zero, fmt.Errorf("%w: %v", risk.ErrNoVolatility, err)
	}
	derived, err := risk.DefaultLevels(sig.Entry, sig.Direction, vol)
	if err != nil {
		return risk.Levels{}, "", decimal.Zero, err
	}

	lv := derived
	switch {
	case stop.Valid:
		lv.StopLoss = stop.Decimal
		source = LevelsMixed
	case target.Valid:
		lv.TakeProfit = target.Decimal
		source = LevelsMixed
	default:
		source = LevelsFromVolatility
	}
	return lv, source, vol, nil
}
