package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/cards"
	"github.com/carteira-dev/carteira/internal/config"
	"github.com/carteira-dev/carteira/internal/entries"
	"github.com/carteira-dev/carteira/internal/gitops"
	"github.com/carteira-dev/carteira/internal/ledger"
	"github.com/carteira-dev/carteira/internal/logger"
	"github.com/carteira-dev/carteira/internal/report"
	"github.com/carteira-dev/carteira/internal/session"
	"github.com/carteira-dev/carteira/internal/sqlstore"
	"github.com/carteira-dev/carteira/internal/store"
)

const envPINHint = "$" + config.EnvPIN

var errNotRepo = errors.New("not a carteira repository (run carteira init)")

// now is replaced in tests.
var now = time.Now

// app is everything one invocation needs, built from the repository's config.
type app struct {
	root    string
	cfg     *config.Config
	log     zerolog.Logger
	store   store.Store
	cards   *cards.Service
	entries *entries.Service
	session *session.State
	ctx     context.Context
}

// repoRoot resolves the --repo flag.
func repoRoot(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("repo")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// openApp loads config, opens the configured store and unlocks the session
// when a PIN was given. Callers must Close it.
func openApp(cmd *cobra.Command) (*app, error) {
	root, err := repoRoot(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Path(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", root, errNotRepo)
		}
		return nil, err
	}
	env, err := config.LoadEnv(root)
	if err != nil {
		return nil, err
	}
	cfg.Apply(env)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	log, err := logger.New(cfg.Logging.Level, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	st, err := openStore(root, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{root: root, cfg: cfg, log: log, store: st, session: session.New(cfg.Security.PINHash)}
	a.ctx = logger.WithContext(session.WithContext(cmd.Context(), a.session), log)

	pin, _ := cmd.Flags().GetString("pin")
	if pin == "" {
		pin = env.PIN
	}
	if pin != "" && a.session.Protected() {
		if err := a.session.Unlock(pin); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.cards, err = cards.Load(a.ctx, st)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.entries = entries.NewService(st, a.cards)
	return a, nil
}

func openStore(root string, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		st, err := sqlstore.Open(cfg.SQLitePath(root))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return st, nil
	default:
		l := ledger.New(root)
		return store.Combine(l, cards.NewFileStore(root), l), nil
	}
}

// Close releases the store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing store")
	}
}

// loader returns a report loader over the app's store.
func (a *app) loader() report.Loader {
	return report.Loader{Entries: a.store, Cards: a.store, Invoices: a.store}
}

// unlocked fails unless changes are allowed.
func (a *app) unlocked() error {
	return session.Require(a.ctx)
}

// record commits the change when auto_commit is on and appends it to the
// activity log with the resulting commit hash.
func (a *app) record(action, details, entryID string) {
	var hash string
	if a.cfg.Git.AutoCommit && gitops.IsRepo(a.root) && gitops.Available() {
		author := gitops.Author{Name: a.cfg.Git.AuthorName, Email: a.cfg.Git.AuthorEmail}
		h, err := gitops.CommitAll(a.ctx, a.root, action+": "+details, author)
		if err != nil {
			a.log.Warn().Err(err).Str("action", action).Msg("auto commit failed")
		}
		hash = h
	}

	rec := activity.Record{
		Timestamp:  now(),
		Actor:      a.cfg.Profile.Name,
		Action:     action,
		Details:    details,
		EntryID:    entryID,
		CommitHash: hash,
	}
	if err := activity.Append(a.root, rec); err != nil {
		a.log.Warn().Err(err).Msg("writing activity log")
	}
}
