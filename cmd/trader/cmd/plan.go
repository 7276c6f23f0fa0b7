package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/riskexec/config"
	"github.com/rustyeddy/riskexec/execution"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Size and risk-check a signal without submitting it",
	Long: `Build a candidate from a signal, size it against a fresh account snapshot
and print the verdict. Nothing is sent to the venue.

Missing stop or target levels are derived from the venue's volatility
estimate (1.5x below/above entry for the stop, 3x that distance for the
target). With the paper venue, pass --volatility to seed the estimate.

Examples:
  trader plan --symbol BTCUSDT --direction long --entry 64000 --stop 63000 --target 67000
  trader plan --signal signal.json --sizing percent --percent 5
  trader plan --symbol ETHUSDT --direction short --entry 3200 --volatility 40`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

var planFlags signalFlags

func init() {
	rootCmd.AddCommand(planCmd)
	planFlags.register(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	plan, err := planFlags.plan(cmd, e)
	if err != nil {
		return err
	}
	printPlan(cmd.OutOrStdout(), plan)
	return nil
}

// signalFlags are the signal and sizing flags shared by plan and submit.
type signalFlags struct {
	file       string
	symbol     string
	direction  string
	entry      string
	stop       string
	target     string
	confidence float64

	mode      string
	sizing    string
	percent   float64
	orderType string

	volatility string
}

func (f *signalFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "signal", "", "JSON signal file ('-' for stdin); overrides the signal flags")
	fs.StringVarP(&f.symbol, "symbol", "s", "", "instrument symbol (default account.symbol)")
	fs.StringVarP(&f.direction, "direction", "d", "long", "long|short (buy|sell)")
	fs.StringVarP(&f.entry, "entry", "e", "", "entry price")
	fs.StringVar(&f.stop, "stop", "", "stop-loss price (derived when empty)")
	fs.StringVar(&f.target, "target", "", "take-profit price (derived when empty)")
	fs.Float64Var(&f.confidence, "confidence", 0, "signal confidence 0-100")

	fs.StringVarP(&f.mode, "mode", "m", "", "practice|real (default account.mode)")
	fs.StringVar(&f.sizing, "sizing", "", "risk|percent (default sizing.method)")
	fs.Float64Var(&f.percent, "percent", 0, "percent of balance for percent sizing (default sizing.percent)")
	fs.StringVar(&f.orderType, "order-type", "", "market|limit|oco (default sizing.order_kind)")

	fs.StringVar(&f.volatility, "volatility", "", "paper venue only: volatility estimate for the symbol")
}

func (f *signalFlags) signal(cmd *cobra.Command, cfg *config.Config) (market.Signal, error) {
	if f.file != "" {
		var (
			data []byte
			err  error
		)
		if f.file == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(f.file)
		}
		if err != nil {
			return market.Signal{}, fmt.Errorf("read signal: %w", err)
		}
		return market.ParseSignal(data)
	}

	symbol := f.symbol
	if symbol == "" {
		symbol = cfg.Account.Symbol
	}
	dir, err := market.ParseDirection(f.direction)
	if err != nil {
		return market.Signal{}, err
	}
	if f.entry == "" {
		return market.Signal{}, fmt.Errorf("--entry is required")
	}
	entry, err := decimal.NewFromString(f.entry)
	if err != nil {
		return market.Signal{}, fmt.Errorf("--entry: %w", err)
	}
	stop, err := optionalDecimal("stop", f.stop)
	if err != nil {
		return market.Signal{}, err
	}
	target, err := optionalDecimal("target", f.target)
	if err != nil {
		return market.Signal{}, err
	}
	return market.NewSignal(symbol, dir, entry, stop, target, f.confidence)
}

func optionalDecimal(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &v, nil
}

func (f *signalFlags) request(sig market.Signal, cfg *config.Config) (execution.PlanRequest, error) {
	req := execution.PlanRequest{Signal: sig, Mode: cfg.Mode()}

	var err error
	if f.mode != "" {
		if req.Mode, err = market.ParseMode(f.mode); err != nil {
			return req, err
		}
	}

	sizing := cfg.Sizing.Method
	if f.sizing != "" {
		sizing = f.sizing
	}
	if req.Method, err = risk.ParseSizingMethod(sizing); err != nil {
		return req, err
	}

	pct := cfg.Sizing.Percent
	if f.percent != 0 {
		pct = f.percent
	}
	req.Percent = decimal.NewFromFloat(pct)

	kind := cfg.Sizing.OrderKind
	if f.orderType != "" {
		kind = f.orderType
	}
	if req.Kind, err = market.ParseOrderKind(kind); err != nil {
		return req, err
	}
	return req, nil
}

// plan builds the request from the flags and runs the planner.
func (f *signalFlags) plan(cmd *cobra.Command, e *engine) (execution.Plan, error) {
	sig, err := f.signal(cmd, e.cfg)
	if err != nil {
		return execution.Plan{}, err
	}
	req, err := f.request(sig, e.cfg)
	if err != nil {
		return execution.Plan{}, err
	}

	var vol decimal.NullDecimal
	if f.volatility != "" {
		v, err := decimal.NewFromString(f.volatility)
		if err != nil {
			return execution.Plan{}, fmt.Errorf("--volatility: %w", err)
		}
		vol = decimal.NewNullDecimal(v)
	}
	if err := e.seedPaper(sig, vol); err != nil {
		return execution.Plan{}, err
	}

	return e.planner.Plan(cmd.Context(), req)
}
