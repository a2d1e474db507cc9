package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/billing"
)

func newResolveCommand() *cobra.Command {
	var card string
	var closingDay int

	cmd := &cobra.Command{
		Use:   "resolve <date>",
		Short: "Show which invoice a card purchase on <date> is billed to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purchase, err := parseDate(args[0])
			if err != nil {
				return err
			}

			day := closingDay
			source := "given closing day"
			if card != "" {
				a, err := openApp(cmd)
				if err != nil {
					return err
				}
				defer a.Close()

				var found bool
				day, found = billing.ClosingDayFor(a.cards, card)
				source = "card " + card
				if !found {
					a.log.Warn().Str("card", card).Int("closing_day", day).Msg("card not found, using fallback closing day")
					source = "unknown card " + card + ", fallback"
				}
			}
			if !billing.ValidDay(day) {
				return errors.New("pass --card or a --closing-day between 1 and 31")
			}

			eff := billing.ResolveInvoiceDate(purchase, day)
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (invoice %s, closing day %d, %s)\n",
				purchase, eff, billing.PeriodOf(eff), day, source)
			return nil
		},
	}

	cmd.Flags().StringVar(&card, "card", "", "card id")
	cmd.Flags().IntVar(&closingDay, "closing-day", 0, "closing day to use instead of a card")
	cmd.MarkFlagsMutuallyExclusive("card", "closing-day")
	return cmd
}
