package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"mangafixer/internal/tracking"
)

func newForgetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <file.cbz>...",
		Short: "Drop tracking records so the next run processes those archives again",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			err := ctx.withStore(cmd.Context(), func(store *tracking.Store) error {
				for _, arg := range args {
					path, err := filepath.Abs(arg)
					if err != nil {
						return fmt.Errorf("resolve path: %w", err)
					}
					removed, err := store.Forget(cmd.Context(), path)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(stdout, "Forgot %s\n", path)
					} else {
						fmt.Fprintf(stdout, "Not tracked: %s\n", path)
					}
				}
				return nil
			})
			if errors.Is(err, errNoStore) {
				fmt.Fprintln(stdout, "Nothing to forget: no tracking store yet")
				return nil
			}
			return err
		},
	}
}
