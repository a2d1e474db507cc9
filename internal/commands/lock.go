package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carteira-dev/carteira/internal/activity"
	"github.com/carteira-dev/carteira/internal/config"
	"github.com/carteira-dev/carteira/internal/session"
)

func newLockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Protect changes with a PIN",
	}
	cmd.AddCommand(newLockSetPINCommand(), newLockClearCommand())
	return cmd
}

// updateSecurity rewrites the PIN hash in carteira.yaml. It reloads the file
// so environment overrides are not persisted.
func updateSecurity(cmd *cobra.Command, hash, details string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.unlocked(); err != nil {
		return err
	}

	path := config.Path(a.root)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.Security.PINHash = hash
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	a.record(activity.ActionLock, details, "")
	return nil
}

func newLockSetPINCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-pin <new-pin>",
		Short: "Require a PIN for every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := session.HashPIN(args[0])
			if err != nil {
				return err
			}
			if err := updateSecurity(cmd, hash, "set pin"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PIN set. Pass --pin or set "+envPINHint+" to make changes.")
			return nil
		},
	}
}

func newLockClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the PIN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := updateSecurity(cmd, "", "clear pin"); err != nil {
				if errors.Is(err, session.ErrLocked) {
					return fmt.Errorf("current PIN required: %w", err)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "PIN removed.")
			return nil
		},
	}
}
