package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/model"
	"github.com/carteira-dev/carteira/internal/report"
)

func newInvoiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Card invoices",
	}
	cmd.AddCommand(newInvoiceShowCommand(), newInvoicePayCommand())
	return cmd
}

func newInvoiceShowCommand() *cobra.Command {
	var month, card string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show card invoice totals for a month",
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

			s, list, err := a.loader().Month(a.ctx, p)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Faturas de %s\n", monthTitle(p))
			tw := newTable(w)
			fmt.Fprintln(tw, "CARD\tDUE\tITEMS\tTOTAL\tSTATUS")
			for _, inv := range s.Cards {
				if card != "" && inv.Card.ID != card {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", inv.Card.Label(), brDate(inv.DueDate), inv.Count, brl(inv.Total), invoiceStatus(inv))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if card == "" {
				return nil
			}
			var items []model.Entry
			for _, e := range list {
				if e.Method == model.MethodCard && e.CardID == card && e.Kind == model.KindExpense {
					items = append(items, e)
				}
			}
			if len(items) == 0 {
				return nil
			}
			fmt.Fprintln(w)
			return printEntries(w, items)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current)")
	cmd.Flags().StringVar(&card, "card", "", "show one card's purchases")
	return cmd
}

func invoiceStatus(inv report.CardInvoice) string {
	if inv.Paid {
		return "paga"
	}
	return "aberta"
}

func newInvoicePayCommand() *cobra.Command {
	var month, amount, date, receipt string
	cmd := &cobra.Command{
		Use:   "pay <card>",
		Short: "Mark a card invoice as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseMonth(month)
			if err != nil {
				return err
			}
			paidOn, err := parseDate(date)
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.unlocked(); err != nil {
				return err
			}

			cardID := args[0]
			if !a.cards.Exists(cardID) {
				return fmt.Errorf("card %s not found", cardID)
			}

			s, _, err := a.loader().Month(a.ctx, p)
			if err != nil {
				return err
			}
			inv := model.Invoice{CardID: cardID, Period: p, Paid: true, PaidOn: paidOn, Receipt: receipt}
			for _, c := range s.Cards {
				if c.Card.ID == cardID {
					inv.PaidAmount = c.Total
				}
			}
			if amount != "" {
				amt, err := parseMoney(amount)
				if err != nil {
					return err
				}
				if amt.IsNegative() {
					return errors.New("amount must not be negative")
				}
				inv.PaidAmount = amt
			}

			if err := a.store.SaveInvoice(a.ctx, inv); err != nil {
				return err
			}
			a.record(activity.ActionInvoicePay, fmt.Sprintf("pay %s %s %s", cardID, p, brl(inv.PaidAmount)), "")
			fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s %s paid: %s\n", cardID, p, brl(inv.PaidAmount))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "invoice month YYYY-MM (default current)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount paid (default invoice total)")
	cmd.Flags().StringVar(&date, "date", "", "payment date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&receipt, "receipt", "", "path of the payment receipt")
	return cmd
}
