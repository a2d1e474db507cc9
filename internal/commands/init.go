package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/config"
	"github.com/carteira-dev/carteira/internal/gitops"
	"github.com/carteira-dev/carteira/internal/sqlstore"
)

func newInitCommand() *cobra.Command {
	var name string
	var backend string
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new carteira repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, backend, !noGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "owner name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&backend, "backend", config.BackendCSV, "storage backend: csv or sqlite")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not create a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, backend string, useGit bool) error {
	if _, err := os.Stat(config.Path(dir)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default(name, backend)
	cfg.Git.AutoCommit = useGit
	if err := cfg.Validate(); err != nil {
		return err
	}

	dirs := []string{
		"ledger",
		"cards",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(config.Path(dir), cfg); err != nil {
		return err
	}

	gitignore := ".env\n*.db\n*.db-journal\nreceipts/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if backend == config.BackendSQLite {
		st, err := sqlstore.Open(cfg.SQLitePath(dir))
		if err != nil {
			return fmt.Errorf("creating database: %w", err)
		}
		if err := st.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}

	ctx := cmd.Context()
	var hash string
	if useGit && gitops.Available() {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
		author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
		h, err := gitops.CommitAll(ctx, dir, "init: initialize "+name, author)
		if err != nil {
			return fmt.Errorf("initial commit: %w", err)
		}
		hash = h
	}

	rec := activity.Record{
		Timestamp:  now(),
		Actor:      name,
		Action:     activity.ActionInit,
		Details:    "backend " + cfg.Storage.Backend,
		CommitHash: hash,
	}
	if err := activity.Append(dir, rec); err != nil {
		return err
	}

	printInit(cmd.OutOrStdout(), dir, hash)
	return nil
}

func printInit(w io.Writer, dir, hash string) {
	if hash == "" {
		fmt.Fprintf(w, "Initialized carteira repository at %s\n", dir)
		return
	}
	fmt.Fprintf(w, "Initialized carteira repository at %s (%s)\n", dir, hash)
}
