package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rustyeddy/riskexec/api"
	"github.com/rustyeddy/riskexec/journal"
	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve planning and submission over HTTP",
	Long: `Start the HTTP API:

  POST /api/v1/plan         plan a signal and keep the plan
  GET  /api/v1/plans/{id}   show a kept plan
  POST /api/v1/orders       submit a kept plan by candidateId
  GET  /api/v1/orders       list journaled orders (sqlite journal)
  GET  /api/v1/orders/{id}  show a journaled order
  GET  /health
  GET  /metrics             Prometheus metrics

With the paper venue every planned symbol is marked at its signal entry, and a
plan request may carry "volatility" to derive missing levels.

Example:
  trader serve --config riskexec.yaml --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e, err := newEngine(cfg, reg)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.log.Info("serving",
		zap.String("addr", cfg.Server.Addr),
		zap.String("venue", cfg.Venue.Type),
		zap.String("mode", string(cfg.Mode())),
	)
	return newAPIServer(e).Start(ctx, cfg.Server.Addr)
}

func newAPIServer(e *engine) *api.Server {
	cfg := e.cfg
	method, _ := risk.ParseSizingMethod(cfg.Sizing.Method)
	opts := api.Options{
		Defaults: api.Defaults{
			Mode:    cfg.Mode(),
			Sizing:  method,
			Percent: cfg.Sizing.Percent,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        e.metrics,
		Logger:         e.log,
	}
	if kind, err := market.ParseOrderKind(cfg.Sizing.OrderKind); err == nil {
		opts.Defaults.OrderKind = kind
	}
	if lister, ok := e.journal.(*journal.SQLite); ok {
		opts.Orders = lister
	}
	if e.paper != nil {
		opts.OnSignal = e.seedPaper
	}

	return api.NewServer(e.planner, e.submitter, opts)
}
