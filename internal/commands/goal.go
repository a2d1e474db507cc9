package commands

import (
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/goals"
)

func newGoalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Savings goals and planned purchases",
	}
	cmd.AddCommand(newGoalShowCommand(), newGoalSetCommand(), newGoalAddCommand(), newGoalRemoveCommand())
	return cmd
}

func newGoalShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show goals and progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := repoRoot(cmd)
			if err != nil {
				return err
			}
			g, err := goals.Load(root)
			if err != nil {
				return err
			}
			return printGoals(cmd.OutOrStdout(), g, civil.DateOf(now()))
		},
	}
}

func printGoals(w io.Writer, g *goals.Goals, today civil.Date) error {
	titles := map[string]string{
		goals.Investment: "Investimentos",
		goals.Reserve:    "Reserva Financeira",
		goals.Renovation: "Obras da Casa",
		goals.Leisure:    "Lazer",
	}

	for _, kind := range []string{goals.Investment, goals.Reserve} {
		gl, _ := g.Global(kind)
		fmt.Fprintf(w, "%s: %s de %s (%d%%)\n", titles[kind], brl(gl.Current), brl(gl.Target), gl.Progress())
		if monthly, ok := gl.MonthlyNeeded(today); ok {
			fmt.Fprintf(w, "  Faltam %s/mês para atingir a meta\n", brl(monthly))
		}
	}
	for _, kind := range []string{goals.Renovation, goals.Leisure} {
		items := g.ItemsOf(kind)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", titles[kind])
		tw := newTable(w)
		for _, it := range items {
			when := ""
			if it.Date != nil {
				when = brDate(*it.Date)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", shortID(it.ID), it.Name, when, brl(it.Amount))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// optionalDate parses s as a date, returning nil for an empty string.
func optionalDate(s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return parseMoney(s)
}

// withGoals loads goals.yaml, applies fn and saves it, recording the change.
func withGoals(cmd *cobra.Command, details string, fn func(*goals.Goals) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.unlocked(); err != nil {
		return err
	}

	g, err := goals.Load(a.root)
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}
	if err := goals.Save(a.root, g); err != nil {
		return err
	}
	a.record(activity.ActionGoal, details, "")
	return nil
}

func newGoalSetCommand() *cobra.Command {
	var current, target, deadline string
	cmd := &cobra.Command{
		Use:       "set <investimento|reserva>",
		Short:     "Set a savings goal",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{goals.Investment, goals.Reserve},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			return withGoals(cmd, "set "+kind, func(g *goals.Goals) error {
				gl, _ := g.Global(kind)
				set := cmd.Flags().Changed
				if set("current") {
					v, err := optionalMoney(current)
					if err != nil {
						return err
					}
					gl.Current = v
				}
				if set("target") {
					v, err := optionalMoney(target)
					if err != nil {
						return err
					}
					gl.Target = v
				}
				if set("deadline") {
					d, err := optionalDate(deadline)
					if err != nil {
						return err
					}
					gl.Deadline = d
				}
				if err := g.SetGlobal(gl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Goal %s: %s of %s (%d%%)\n", kind, brl(gl.Current), brl(gl.Target), gl.Progress())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "amount saved so far")
	cmd.Flags().StringVar(&target, "target", "", "target amount")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline YYYY-MM-DD; empty clears it")
	return cmd
}

func newGoalAddCommand() *cobra.Command {
	var date, amount string
	cmd := &cobra.Command{
		Use:   "add <obra|lazer> <name>",
		Short: "Plan a purchase",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := optionalDate(date)
			if err != nil {
				return err
			}
			amt, err := optionalMoney(amount)
			if err != nil {
				return err
			}
			return withGoals(cmd, "add "+args[1], func(g *goals.Goals) error {
				it, err := g.AddItem(args[0], args[1], d, amt)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Planned %s (%s)\n", it.Name, it.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "planned date YYYY-MM-DD")
	cmd.Flags().StringVar(&amount, "amount", "", "planned amount")
	return cmd
}

func newGoalRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a planned purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGoals(cmd, "remove "+args[0], func(g *goals.Goals) error {
				id, err := matchItem(g, args[0])
				if err != nil {
					return err
				}
				if err := g.RemoveItem(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
				return nil
			})
		},
	}
}

// matchItem resolves a full ID or a unique prefix of one.
func matchItem(g *goals.Goals, prefix string) (string, error) {
	var found []string
	for _, it := range g.Items {
		if it.ID == prefix {
			return it.ID, nil
		}
		if len(prefix) >= 4 && strings.HasPrefix(it.ID, prefix) {
			found = append(found, it.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w: %s", goals.ErrNotFound, prefix)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("%q matches %d items", prefix, len(found))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
