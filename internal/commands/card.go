package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/model"
)

func newCardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage credit cards",
	}
	cmd.AddCommand(newCardAddCommand(), newCardListCommand(), newCardEditCommand(), newCardRemoveCommand())
	return cmd
}

type cardFlags struct {
	name, institution, brand, lastFour, limit, color string
	closingDay, dueDay                               int
}

func (f *cardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.institution, "institution", "", "issuing bank")
	cmd.Flags().StringVar(&f.brand, "brand", "", "card brand")
	cmd.Flags().StringVar(&f.lastFour, "last-four", "", "last four digits")
	cmd.Flags().StringVar(&f.limit, "limit", "", "credit limit")
	cmd.Flags().StringVar(&f.color, "color", "", "display color")
	cmd.Flags().IntVar(&f.closingDay, "closing-day", 0, "day of month the invoice closes (1-31)")
	cmd.Flags().IntVar(&f.dueDay, "due-day", 0, "day of month the invoice is due (1-31)")
}

// apply copies the flags the user set onto c.
func (f *cardFlags) apply(cmd *cobra.Command, c *model.Card) error {
	set := cmd.Flags().Changed
	if set("name") {
		c.Name = strings.TrimSpace(f.name)
	}
	if set("institution") {
		c.Institution = f.institution
	}
	if set("brand") {
		c.Brand = f.brand
	}
	if set("last-four") {
		c.LastFour = f.lastFour
	}
	if set("color") {
		c.Color = f.color
	}
	if set("closing-day") {
		c.ClosingDay = f.closingDay
	}
	if set("due-day") {
		c.DueDay = f.dueDay
	}
	if set("limit") {
		limit, err := parseMoney(f.limit)
		if err != nil {
			return err
		}
		c.Limit = limit
	}
	return nil
}

func newCardAddCommand() *cobra.Command {
	var f cardFlags
	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register a card",
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

			c := model.Card{ID: args[0], Name: args[0], Limit: decimal.Zero}
			if err := f.apply(cmd, &c); err != nil {
				return err
			}
			if err := a.cards.Add(a.ctx, c); err != nil {
				return err
			}
			a.record(activity.ActionCardAdd, "add card "+c.ID, "")
			fmt.Fprintf(cmd.OutOrStdout(), "Added card %s (closes on day %d)\n", c.Label(), c.ClosingDay)
			return nil
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("closing-day")
	_ = cmd.MarkFlagRequired("due-day")
	return cmd
}

func newCardEditCommand() *cobra.Command {
	var f cardFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a card",
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

			c, ok := a.cards.Get(args[0])
			if !ok {
				return fmt.Errorf("card %s not found", args[0])
			}
			if err := f.apply(cmd, &c); err != nil {
				return err
			}
			if err := a.cards.Update(a.ctx, c); err != nil {
				return err
			}
			a.record(activity.ActionCardEdit, "edit card "+c.ID, "")
			fmt.Fprintf(cmd.OutOrStdout(), "Updated card %s\n", c.Label())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newCardRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a card",
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

			if err := a.cards.Remove(a.ctx, args[0]); err != nil {
				return err
			}
			a.record(activity.ActionCardRemove, "remove card "+args[0], "")
			fmt.Fprintf(cmd.OutOrStdout(), "Removed card %s\n", args[0])
			return nil
		},
	}
}

func newCardListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			all := a.cards.All()
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cards.")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCARD\tCLOSES\tDUE\tLIMIT")
			for _, c := range all {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", c.ID, c.Label(), c.ClosingDay, c.DueDay, brl(c.Limit))
			}
			return tw.Flush()
		},
	}
}
