package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mangafixer/internal/config"
	"mangafixer/internal/preflight"
	"mangafixer/internal/staging"
	"mangafixer/internal/tracking"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show library checks and tracking store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			printer := newStatusPrinter(stdout)

			printer.section("System")
			printer.config(ctx.configPath, ctx.configExists)
			for _, result := range preflight.RunAll(cfg) {
				printer.check(result)
			}

			printer.section("Tracking Store")
			if err := renderStoreStatus(cmd, ctx, cfg, printer); err != nil {
				return err
			}

			printer.section("Temporary Archives")
			return renderArtifacts(cfg, stdout)
		},
	}
}

func renderStoreStatus(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, printer *statusPrinter) error {
	dbPath := filepath.Join(cfg.Paths.DataDir, tracking.FileName)
	exists, err := tracking.Exists(cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	if !exists {
		printer.line("Database", statusInfo, dbPath+" (not created yet; the next run bootstraps it)")
		return nil
	}

	err = ctx.withStore(cmd.Context(), func(store *tracking.Store) error {
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		health, err := store.CheckHealth(cmd.Context())
		if err != nil {
			return err
		}

		printer.storeHealth(store.Path(), health)
		printer.lastProcessed(stats.LastProcessed)

		rows := [][]string{
			{"Tagged", strconv.Itoa(stats.Tagged)},
			{"Already tagged", strconv.Itoa(stats.AlreadyTagged)},
		}
		if stats.Unknown > 0 {
			rows = append(rows, []string{"Unknown outcome", strconv.Itoa(stats.Unknown)})
		}
		rows = append(rows, []string{"Total", strconv.Itoa(stats.Total)})
		fmt.Fprint(printer.out, renderTable([]string{"Outcome", "Archives"}, rows, []columnAlignment{alignLeft, alignRight}))
		return nil
	})
	switch {
	case storeBusy(err):
		printer.line("Database", statusInfo, dbPath+" (a run is in progress; statistics unavailable)")
		return nil
	case errors.Is(err, errNoStore):
		printer.line("Database", statusInfo, dbPath+" (not created yet; the next run bootstraps it)")
		return nil
	}
	return err
}

func renderArtifacts(cfg *config.Config, stdout io.Writer) error {
	artifacts, err := staging.ListArtifacts(cfg.Paths.LibraryDir)
	if err != nil {
		fmt.Fprintf(stdout, "Unable to list temporary archives: %v\n", err)
		return nil
	}
	if len(artifacts) == 0 {
		fmt.Fprintln(stdout, "None")
		return nil
	}
	rows := make([][]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		rel, err := filepath.Rel(cfg.Paths.LibraryDir, artifact.Path)
		if err != nil {
			rel = artifact.Path
		}
		rows = append(rows, []string{rel, humanize.IBytes(uint64(artifact.Size)), humanize.Time(artifact.ModTime)})
	}
	fmt.Fprint(stdout, renderTable([]string{"Path", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	fmt.Fprintln(stdout, "These are removed automatically at the start of the next run.")
	return nil
}
