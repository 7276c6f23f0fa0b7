package cmd

import (
	"fmt"

	"github.com/rustyeddy/riskexec/execution"
	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Plan a signal and submit it if it passes the risk checks",
	Long: `Plan a signal exactly like 'trader plan', then send one order to the
endpoint for the selected mode. A rejected candidate is never sent, and no
outcome is retried: a venue rejection, an expired session or a network
failure is reported and the command exits non-zero.

Accepted orders are written to the configured journal.

Examples:
  trader submit --symbol BTCUSDT --direction long --entry 64000 --stop 63000 --target 67000
  trader submit --signal signal.json --mode real --order-type oco`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

var submitFlags signalFlags

func init() {
	rootCmd.AddCommand(submitCmd)
	submitFlags.register(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := newEngine(cfg, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	plan, err := submitFlags.plan(cmd, e)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	printPlan(out, plan)

	outcome, err := e.submitter.Submit(cmd.Context(), plan.Candidate, plan.Candidate.Account.Mode)
	if err != nil {
		return err
	}
	printOutcome(out, plan.Candidate.ID, outcome)

	if outcome.State != execution.Submitted {
		return fmt.Errorf("order not submitted: %s", outcome)
	}
	return nil
}
