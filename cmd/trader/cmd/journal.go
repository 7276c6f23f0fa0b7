package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rustyeddy/riskexec/journal"
	"github.com/rustyeddy/riskexec/market"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the order journal",
	Long: `Query and display accepted orders from the SQLite journal.

Subcommands:
  list  - List orders, optionally filtered
  show  - Show one order by venue order ID

Examples:
  trader journal list --mode practice --day 2026-01-15
  trader journal list --symbol BTCUSDT --csv orders.csv
  trader journal show paper-01J...`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled orders",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show one journaled order",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalDBPath string
	journalMode   string
	journalSymbol string
	journalDay    string
	journalLimit  int
	journalCSV    string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVar(&journalDBPath, "db", "", "path to SQLite journal DB (default journal.db_path)")

	journalListCmd.Flags().StringVarP(&journalMode, "mode", "m", "", "practice|real")
	journalListCmd.Flags().StringVarP(&journalSymbol, "symbol", "s", "", "instrument symbol")
	journalListCmd.Flags().StringVar(&journalDay, "day", "", "only orders accepted on YYYY-MM-DD (local time)")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "maximum number of orders")
	journalListCmd.Flags().StringVar(&journalCSV, "csv", "", "also export the orders to this CSV file")
}

func openJournal() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	f := journal.Filter{Symbol: journalSymbol, Limit: journalLimit}
	if journalMode != "" {
		mode, err := market.ParseMode(journalMode)
		if err != nil {
			return err
		}
		f.Mode = mode
	}
	if journalDay != "" {
		start, end, err := dayBounds(time.Local, journalDay)
		if err != nil {
			return fmt.Errorf("date: %w", err)
		}
		f.Since, f.Until = start, end
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListOrders(f)
	if err != nil {
		return fmt.Errorf("query orders: %w", err)
	}
	printOrders(cmd.OutOrStdout(), recs)

	if journalCSV == "" {
		return nil
	}
	out, err := os.Create(journalCSV)
	if err != nil {
		return err
	}
	if err := journal.WriteCSV(out, recs); err != nil {
		out.Close()
		return fmt.Errorf("export csv: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d orders to %s\n", len(recs), journalCSV)
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetOrder(args[0])
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	printOrder(cmd.OutOrStdout(), rec)
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
