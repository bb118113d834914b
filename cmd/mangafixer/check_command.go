package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mangafixer/internal/archive"
	"mangafixer/internal/tracking"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.cbz>",
		Short: "Show what mangafixer would do with one archive, without changing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			stdout := cmd.OutOrStdout()

			inspection, inspectErr := archive.Inspect(path)
			rows := [][]string{
				{"Path", path},
				{"Series", inspection.Series},
				{"Title", inspection.Title},
			}
			if inspectErr != nil {
				rows = append(rows, []string{"Archive", "unreadable: " + inspectErr.Error()})
			} else {
				rows = append(rows,
					[]string{"Entries", strconv.Itoa(inspection.Entries)},
					[]string{"Has ComicInfo.xml", yesNo(inspection.HasDescriptor)},
				)
				if inspection.Existing != nil {
					rows = append(rows,
						[]string{"Existing series", inspection.Existing.Series},
						[]string{"Existing title", inspection.Existing.Title},
					)
				}
			}
			rows = append(rows, []string{"Tracking", trackingState(cmd, ctx, path)})
			fmt.Fprint(stdout, renderTable([]string{"Field", "Value"}, rows, nil))

			if inspectErr == nil && !inspection.HasDescriptor {
				fmt.Fprintln(stdout, "Descriptor that would be written:")
				fmt.Fprint(stdout, string(inspection.Proposed))
			}
			return nil
		},
	}
}

func trackingState(cmd *cobra.Command, ctx *commandContext, path string) string {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "unavailable: " + err.Error()
	}
	exists, err := tracking.Exists(cfg.Paths.DataDir)
	if err != nil {
		return "unavailable: " + err.Error()
	}
	if !exists {
		return "no tracking store yet"
	}

	state := "not processed"
	err = ctx.withStore(cmd.Context(), func(store *tracking.Store) error {
		record, err := store.Get(cmd.Context(), path)
		if err != nil {
			return err
		}
		if record != nil {
			state = fmt.Sprintf("processed (%s) at %s", record.Outcome, record.ProcessedAt.Local().Format(time.DateTime))
		}
		return nil
	})
	switch {
	case storeBusy(err):
		return "unavailable: a run is in progress"
	case errors.Is(err, errNoStore):
		return "no tracking store yet"
	case err != nil:
		return "unavailable: " + err.Error()
	}
	return state
}
