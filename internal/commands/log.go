package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
)

func newLogCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := repoRoot(cmd)
			if err != nil {
				return err
			}
			records, err := activity.Tail(root, limit)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tDETAILS\tENTRY\tCOMMIT")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Timestamp.Local().Format("2006-01-02 15:04"), r.Actor, r.Action, r.Details, r.EntryID, r.CommitHash)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records")
	return cmd
}
