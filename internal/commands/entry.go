package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/entries"
	"github.com/carteira-dev/carteira/internal/importer"
	"github.com/carteira-dev/carteira/internal/model"
)

func newEntryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Record income and expenses",
	}
	cmd.AddCommand(newEntryAddCommand(), newEntryEditCommand(), newEntryRemoveCommand(), newEntryListCommand())
	return cmd
}

func parseKind(s string) (model.Kind, error) {
	k := model.Kind(strings.ToLower(strings.TrimSpace(s)))
	if !model.ValidKind(k) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidKind, s)
	}
	return k, nil
}

func newEntryAddCommand() *cobra.Command {
	var (
		kind, desc, amount, date, category string
		card, storeName, receipt           string
		notification                       string
		fixed, paid                        bool
		installments                       int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry; card purchases may be split into installments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.unlocked(); err != nil {
				return err
			}

			if notification != "" {
				n := importer.ParseText(notification)
				if n.Empty() {
					return errors.New("nothing recognized in notification")
				}
				if amount == "" && n.Amount.Valid {
					amount = n.Amount.Decimal.String()
				}
				if desc == "" {
					desc = n.Description
				}
				if storeName == "" {
					storeName = n.Merchant
				}
			}

			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			if amount == "" {
				return errors.New("--amount is required")
			}
			amt, err := parseMoney(amount)
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}

			created, err := a.entries.Create(a.ctx, entries.NewEntry{
				Kind:         k,
				Description:  desc,
				Amount:       amt,
				Date:         d,
				Category:     category,
				Fixed:        fixed,
				CardID:       card,
				Installments: installments,
				Store:        storeName,
				Receipt:      receipt,
				Paid:         paid,
			})
			if err != nil {
				return err
			}

			details := fmt.Sprintf("%s %s", created[0].Description, brl(amt))
			if len(created) > 1 {
				details = fmt.Sprintf("%s em %dx", details, len(created))
			}
			a.record(activity.ActionEntryAdd, details, created[0].ID)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Added %d entr%s\n", len(created), plural(len(created), "y", "ies"))
			return printEntries(w, created)
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "kind", string(model.KindExpense), "income or expense")
	f.StringVar(&desc, "desc", "", "description")
	f.StringVar(&amount, "amount", "", "amount, e.g. 1234.56 or 1.234,56")
	f.StringVar(&date, "date", "", "purchase date YYYY-MM-DD (default today)")
	f.StringVar(&category, "category", model.DefaultCategory, "category id")
	f.BoolVar(&fixed, "fixed", false, "recurring every month")
	f.StringVar(&card, "card", "", "card id; empty for cash")
	f.IntVar(&installments, "installments", 1, "number of monthly installments (card only)")
	f.StringVar(&storeName, "store", "", "merchant")
	f.StringVar(&receipt, "receipt", "", "path of a stored receipt")
	f.BoolVar(&paid, "paid", false, "already paid")
	f.StringVar(&notification, "notification", "", "bank notification text to read amount and merchant from")
	return cmd
}

func newEntryEditCommand() *cobra.Command {
	var (
		kind, desc, amount, date, category string
		card, storeName, receipt           string
		fixed, paid                        bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an entry; installment changes carry over to later installments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.unlocked(); err != nil {
				return err
			}

			var ch entries.Changes
			set := cmd.Flags().Changed
			if set("kind") {
				k, err := parseKind(kind)
				if err != nil {
					return err
				}
				ch.Kind = &k
			}
			if set("desc") {
				ch.Description = &desc
			}
			if set("amount") {
				amt, err := parseMoney(amount)
				if err != nil {
					return err
				}
				ch.Amount = &amt
			}
			if set("date") {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				ch.Date = &d
			}
			if set("category") {
				ch.Category = &category
			}
			if set("fixed") {
				ch.Fixed = &fixed
			}
			if set("card") {
				ch.CardID = &card
			}
			if set("store") {
				ch.Store = &storeName
			}
			if set("receipt") {
				ch.Receipt = &receipt
			}
			if set("paid") {
				ch.Paid = &paid
			}

			res, err := a.entries.Edit(a.ctx, args[0], ch)
			if err != nil {
				return err
			}
			a.record(activity.ActionEntryEdit, "edit "+res.Entry.Description, res.Entry.ID)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Updated %s\n", res.Entry.ID)
			if len(res.Cascaded) > 0 {
				fmt.Fprintf(w, "Also updated later installments: %s\n", strings.Join(res.Cascaded, ", "))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "income or expense")
	f.StringVar(&desc, "desc", "", "description")
	f.StringVar(&amount, "amount", "", "amount")
	f.StringVar(&date, "date", "", "purchase date (invoice date for installments)")
	f.StringVar(&category, "category", "", "category id")
	f.BoolVar(&fixed, "fixed", false, "recurring every month")
	f.StringVar(&card, "card", "", "card id; empty switches to cash")
	f.StringVar(&storeName, "store", "", "merchant")
	f.StringVar(&receipt, "receipt", "", "path of a stored receipt")
	f.BoolVar(&paid, "paid", false, "already paid")
	return cmd
}

func newEntryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an entry and, for installments, every later one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.unlocked(); err != nil {
				return err
			}

			ids, err := a.entries.Delete(a.ctx, args[0])
			if err != nil {
				return err
			}
			a.record(activity.ActionEntryRemove, "remove "+strings.Join(ids, " "), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", strings.Join(ids, ", "))
			return nil
		},
	}
}

func newEntryListCommand() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a month's entries",
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
			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintf(w, "No entries in %s.\n", monthTitle(p))
				return nil
			}
			return printEntries(w, list)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default current)")
	return cmd
}

func printEntries(w io.Writer, list []model.Entry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tCATEGORY\tPAYMENT\tAMOUNT")
	for _, e := range list {
		payment := string(e.Method)
		if e.Method == model.MethodCard {
			payment = e.CardID
		}
		amount := brl(e.Amount)
		if e.Kind == model.KindIncome {
			amount = "+" + amount
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, brDate(e.Date), e.Description, model.LookupCategory(e.Category).Label, payment, amount)
	}
	return tw.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
