package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rustyeddy/riskexec/execution"
	"github.com/rustyeddy/riskexec/journal"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func printPlan(w io.Writer, p execution.Plan) {
	c, v, s := p.Candidate, p.Verdict, p.Candidate.Size

	levels := string(p.LevelsSource)
	if !p.Volatility.IsZero() {
		levels = fmt.Sprintf("%s (volatility %s)", levels, p.Volatility)
	}
	verdict := text.FgGreen.Sprint("ACCEPTED")
	if !v.Accepted {
		verdict = text.FgRed.Sprint("REJECTED")
	}

	t := newTable(w, "TRADE PLAN")
	t.AppendRows([]table.Row{
		{"Candidate", c.ID},
		{"Symbol", c.Signal.Symbol},
		{"Direction", fmt.Sprintf("%s (%s)", c.Signal.Direction, c.Side())},
		{"Mode", c.Account.Mode},
		{"Order", c.Kind},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Entry", c.Signal.Entry},
		{"Stop loss", c.Levels.StopLoss},
		{"Take profit", c.Levels.TakeProfit},
		{"Levels", levels},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Sizing", s.Method},
		{"Quantity", s.Quantity.StringFixed(8)},
		{"Notional", s.Notional.StringFixed(2)},
		{"Risk $", s.DollarRisk.StringFixed(2)},
		{"Reward $", s.DollarReward.StringFixed(2)},
		{"R:R", v.PlannedRR.StringFixed(2)},
		{"Risk %", v.PlannedRiskPct.StringFixed(3)},
		{"Kelly (advisory)", v.KellySuggested.Shift(2).StringFixed(2) + "%"},
		{"Balance", c.Account.Balance.StringFixed(2)},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Verdict", verdict})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 16, Align: text.AlignLeft},
		{Number: 2, WidthMin: 24, Align: text.AlignRight},
	})
	t.Render()

	if len(v.Reasons) == 0 {
		return
	}
	r := newTable(w, "REASONS")
	r.AppendHeader(table.Row{"Code", "Message"})
	for _, reason := range v.Reasons {
		r.AppendRow(table.Row{reason.Code, reason.Msg})
	}
	r.Render()
}

func printOutcome(w io.Writer, candidateID string, out execution.Outcome) {
	state := out.State.String()
	if out.State == execution.Submitted {
		state = text.FgGreen.Sprint(state)
	} else {
		state = text.FgRed.Sprint(state)
	}

	t := newTable(w, "SUBMISSION")
	t.AppendRows([]table.Row{
		{"Candidate", candidateID},
		{"State", state},
	})
	if out.OrderID != "" {
		t.AppendRow(table.Row{"Order ID", out.OrderID})
	}
	if out.ClientOrderID != "" {
		t.AppendRow(table.Row{"Client order ID", out.ClientOrderID})
	}
	if out.HTTPStatus != 0 {
		t.AppendRow(table.Row{"Venue status", out.HTTPStatus})
	}
	t.AppendRow(table.Row{"Detail", out.String()})
	t.Render()
}

func printOrders(w io.Writer, recs []journal.OrderRecord) {
	t := newTable(w, fmt.Sprintf("ORDERS (%d)", len(recs)))
	t.AppendHeader(table.Row{"Accepted", "Order ID", "Symbol", "Side", "Type", "Mode", "Qty", "Entry", "Stop", "Target", "R:R", "Risk %"})
	for _, r := range recs {
		t.AppendRow(table.Row{
			r.AcceptedAt.Local().Format("2006-01-02 15:04:05"),
			r.OrderID,
			r.Symbol,
			r.Side,
			r.Kind,
			r.Mode,
			r.Quantity.StringFixed(8),
			r.Entry,
			r.StopLoss,
			r.TakeProfit,
			r.RR.StringFixed(2),
			r.RiskPct.StringFixed(3),
		})
	}
	t.Render()
}

func printOrder(w io.Writer, r journal.OrderRecord) {
	t := newTable(w, "ORDER "+r.OrderID)
	t.AppendRows([]table.Row{
		{"Candidate", r.CandidateID},
		{"Accepted", r.AcceptedAt.Local().Format("2006-01-02 15:04:05 MST")},
		{"Symbol", r.Symbol},
		{"Side", r.Side},
		{"Type", r.Kind},
		{"Mode", r.Mode},
		{"Quantity", r.Quantity.StringFixed(8)},
		{"Entry", r.Entry},
		{"Stop loss", r.StopLoss},
		{"Take profit", r.TakeProfit},
		{"Notional", r.Notional.StringFixed(2)},
		{"Risk $", r.DollarRisk.StringFixed(2)},
		{"R:R", r.RR.StringFixed(2)},
		{"Risk %", r.RiskPct.StringFixed(3)},
	})
	t.Render()
}
