package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/riskexec/broker"
	"github.com/rustyeddy/riskexec/broker/paper"
	"github.com/rustyeddy/riskexec/broker/rest"
	"github.com/rustyeddy/riskexec/config"
	"github.com/rustyeddy/riskexec/execution"
	"github.com/rustyeddy/riskexec/journal"
	"github.com/rustyeddy/riskexec/logging"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// engine is everything a command needs, wired from one config.
type engine struct {
	cfg       *config.Config
	log       *zap.Logger
	metrics   *metrics.Metrics
	venue     broker.Venue
	paper     *paper.Engine // set for the paper venue only
	journal   journal.Journal
	planner   *execution.Planner
	submitter *execution.Submitter
}

func newEngine(cfg *config.Config, reg *prometheus.Registry) (*engine, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, err
	}

	venue, pe, err := newVenue(cfg, log)
	if err != nil {
		return nil, err
	}

	j, err := journal.Open(cfg.Journal.Type, cfg.Journal.DBPath, cfg.Journal.OrdersFile)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	m := metrics.New(reg)
	params := cfg.RiskParameters()

	return &engine{
		cfg:     cfg,
		log:     log,
		metrics: m,
		venue:   venue,
		paper:   pe,
		journal: j,
		planner: execution.NewPlanner(venue, venue, params,
			execution.PlannerLogger(log),
			execution.PlannerMetrics(m),
		),
		submitter: execution.NewSubmitter(venue, venue,
			execution.WithObserver(journal.NewObserver(j, log)),
			execution.WithRiskParameters(params),
			execution.WithLogger(log),
			execution.WithMetrics(m),
		),
	}, nil
}

func newVenue(cfg *config.Config, log *zap.Logger) (broker.Venue, *paper.Engine, error) {
	switch cfg.Venue.Type {
	case "paper":
		e := paper.NewEngine()
		bal := decimal.NewFromFloat(cfg.Venue.PaperBalance)
		e.Fund(market.Practice, bal)
		e.Fund(market.Real, bal)
		return e, e, nil

	case "rest":
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, nil, err
		}
		token := os.Getenv(cfg.Venue.TokenEnv)
		if token == "" {
			log.Warn("no venue token in environment; submissions will report an expired session",
				zap.String("env", cfg.Venue.TokenEnv))
		}
		c, err := rest.NewClient(rest.Config{
			PracticeURL: cfg.Venue.PracticeURL,
			RealURL:     cfg.Venue.RealURL,
			Timeout:     timeout,
			Granularity: rest.Granularity(cfg.Volatility.Granularity),
			ATRPeriod:   cfg.Volatility.Period,
		}, rest.NewTokenSession(token))
		if err != nil {
			return nil, nil, fmt.Errorf("rest venue: %w", err)
		}
		return c, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown venue type %q", cfg.Venue.Type)
	}
}

// seedPaper marks the signal's symbol at its entry on the paper venue so
// market orders can fill, and sets the volatility estimate when one is given.
// Other venues price themselves and refuse a volatility.
func (e *engine) seedPaper(sig market.Signal, volatility decimal.NullDecimal) error {
	if e.paper == nil {
		if volatility.Valid {
			return fmt.Errorf("volatility only applies to the paper venue")
		}
		return nil
	}
	if volatility.Valid && !volatility.Decimal.IsPositive() {
		return fmt.Errorf("volatility must be positive, got %s", volatility.Decimal)
	}
	e.paper.SetMark(sig.Symbol, sig.Entry)
	if volatility.Valid {
		e.paper.SetVolatility(sig.Symbol, volatility.Decimal)
	}
	return nil
}

// Close waits for pending journal writes before closing the journal.
func (e *engine) Close() error {
	e.submitter.Wait()
	err := e.journal.Close()
	_ = e.log.Sync()
	return err
}
