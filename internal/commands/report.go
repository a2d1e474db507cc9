package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/report"
)

func newSummaryCommand() *cobra.Command {
	var month string
	var trend int
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Monthly dashboard: income, expenses, fixed costs and card invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseMonth(month)
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			s, _, err := a.loader().Month(a.ctx, p)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if err := printSummary(w, s); err != nil {
				return err
			}

			if trend < 2 {
				return nil
			}
			months, err := a.loader().Trend(a.ctx, p, trend)
			if err != nil {
				return err
			}
			fmt.Fprintln(w)
			tw := newTable(w)
			fmt.Fprintln(tw, "MONTH\tINCOME\tEXPENSES\tBALANCE")
			for _, m := range months {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Period, brl(m.Income), brl(m.Expense), brl(m.Balance))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current)")
	cmd.Flags().IntVar(&trend, "trend", 0, "also show totals for this many months ending at --month")
	return cmd
}

func printSummary(w io.Writer, s report.Summary) error {
	fmt.Fprintf(w, "%s\n\n", monthTitle(s.Period))
	tw := newTable(w)
	fmt.Fprintf(tw, "Receitas\t%s\n", brl(s.Income))
	fmt.Fprintf(tw, "Despesas\t%s\t(%d%% da receita)\n", brl(s.Expense), s.SpentPercent)
	fmt.Fprintf(tw, "Saldo\t%s\n", brl(s.Balance))
	if err := tw.Flush(); err != nil {
		return err
	}

	section := func(title string, list []model.Entry) {
		if len(list) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", title)
		for _, e := range list {
			fmt.Fprintf(w, "  %-30s %s\n", e.Description, brl(e.Amount))
		}
	}
	section("Receitas fixas", s.FixedIncome)
	section("Despesas fixas", s.FixedExpenses)
	section("Despesas variáveis", s.Variable)

	if len(s.Cards) > 0 {
		fmt.Fprintf(w, "\nFaturas\n")
		tw = newTable(w)
		for _, inv := range s.Cards {
			fmt.Fprintf(tw, "  %s\t%s\tvence %s\t%s\n", inv.Card.Label(), brl(inv.Total), brDate(inv.DueDate), invoiceStatus(inv))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if s.OrphanCard.IsPositive() {
		fmt.Fprintf(w, "\nCartões removidos: %s\n", brl(s.OrphanCard))
	}
	return nil
}

func newBreakdownCommand() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Expenses by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseMonth(month)
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.entries.Month(a.ctx, p)
			if err != nil {
				return err
			}
			parts := report.Breakdown(list)
			w := cmd.OutOrStdout()
			if len(parts) == 0 {
				fmt.Fprintf(w, "No expenses in %s.\n", monthTitle(p))
				return nil
			}
			tw := newTable(w)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tSHARE")
			for _, sl := range parts {
				fmt.Fprintf(tw, "%s\t%s\t%d%%\n", sl.Category.Label, brl(sl.Total), sl.Percent)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current)")
	return cmd
}
