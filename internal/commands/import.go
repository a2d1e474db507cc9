package commands

import (
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/entries"
	"github.com/carteira-dev/carteira/internal/importer"
	"github.com/carteira-dev/carteira/internal/model"
)

func newImportCommand() *cobra.Command {
	var card, category, date, format string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Turn bank notifications saved in import/*.txt into expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q", format)
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.unlocked(); err != nil {
				return err
			}

			files, err := importer.Scan(a.root)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(w, "Nothing to import.")
				return nil
			}

			imported, err := importFiles(a, parser, files, importDefaults{date: d, card: card, category: category}, w)
			if imported > 0 {
				a.record(activity.ActionImport, fmt.Sprintf("import %d notification(s)", imported), "")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Imported %d of %d file(s)\n", imported, len(files))
			return nil
		},
	}
	cmd.Flags().StringVar(&card, "card", "", "card the purchases were made with; empty for cash")
	cmd.Flags().StringVar(&category, "category", model.DefaultCategory, "category for every imported entry")
	cmd.Flags().StringVar(&date, "date", "", "purchase date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&format, "format", "notification", "parser format")
	return cmd
}

type importDefaults struct {
	date     civil.Date
	card     string
	category string
}

// importFiles creates one expense per usable notification and moves each
// imported file to import/processed. It returns how many entries were created
// before any failure.
func importFiles(a *app, parser importer.Parser, files []importer.FileInfo, def importDefaults, w io.Writer) (int, error) {
	imported := 0
	for _, fi := range files {
		n, err := parseFile(parser, fi.Path)
		if err != nil {
			return imported, err
		}
		if !n.Amount.Valid || !model.ValidAmount(n.Amount.Decimal) {
			a.log.Warn().Str("file", fi.Name).Msg("no usable amount found, skipping")
			fmt.Fprintf(w, "%s: no usable amount found, skipped\n", fi.Name)
			continue
		}

		created, err := a.entries.Create(a.ctx, entries.NewEntry{
			Kind:        model.KindExpense,
			Description: n.Description,
			Amount:      n.Amount.Decimal,
			Date:        def.date,
			Category:    def.category,
			CardID:      def.card,
			Store:       n.Merchant,
		})
		if err != nil {
			return imported, fmt.Errorf("importing %s: %w", fi.Name, err)
		}
		imported++
		fmt.Fprintf(w, "%s: %s %s -> %s\n", fi.Name, created[0].Description, brl(created[0].Amount), created[0].ID)
		if err := importer.MarkProcessed(a.root, fi.Name); err != nil {
			return imported, err
		}
	}
	return imported, nil
}

func parseFile(p importer.Parser, path string) (importer.Notification, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Notification{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f)
}
