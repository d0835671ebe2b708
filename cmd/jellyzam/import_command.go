package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jellyzam/internal/library"
	"jellyzam/internal/logging"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "import <dir>...",
		Short: "Catalogue the audio files below one or more directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			importer := library.NewImporter(sess.store, sess.cfg.IsAudioFile, sess.logger)
			type dirReport struct {
				Dir string `json:"dir"`
				library.ImportReport
				Error string `json:"error,omitempty"`
			}
			reports := make([]dirReport, 0, len(args))
			var failed error
			for _, dir := range args {
				report, err := importer.ImportDir(cmd.Context(), dir)
				entry := dirReport{Dir: dir, ImportReport: report}
				if err != nil {
					entry.Error = err.Error()
					failed = errors.Join(failed, err)
				}
				reports = append(reports, entry)
			}

			pruned := 0
			if prune {
				if pruned, err = sess.store.PruneMissing(cmd.Context()); err != nil {
					return fmt.Errorf("prune missing tracks: %w", err)
				}
				if pruned > 0 {
					sess.logger.Info("pruned missing tracks", logging.Int("removed", pruned))
				}
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{"directories": reports, "pruned": pruned}); err != nil {
					return err
				}
				return failed
			}

			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{
					r.Dir,
					fmt.Sprint(r.Scanned),
					fmt.Sprint(r.Added),
					fmt.Sprint(r.Existing),
					fmt.Sprint(r.Failed),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Directory", "Scanned", "Added", "Existing", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			if prune {
				fmt.Fprintf(out, "Removed %d missing tracks from the catalog\n", pruned)
			}
			return failed
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Remove catalog entries whose files no longer exist")
	return cmd
}
