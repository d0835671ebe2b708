package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"jellyzam/internal/identification"
	"jellyzam/internal/library"
	"jellyzam/internal/preflight"
)

// kindIdentify labels runs started for explicit files.
const kindIdentify = "identify"

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool
	var noOrganize bool

	cmd := &cobra.Command{
		Use:   "identify <file>...",
		Short: "Identify specific audio files, update their metadata and organize them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if overwrite {
				sess.cfg.Identification.OverwriteExisting = true
			}
			if noOrganize {
				sess.cfg.Organize.Enabled = false
			}
			if err := requirePreflight(cmd, sess); err != nil {
				return err
			}

			importer := library.NewImporter(sess.store, nil, sess.logger)
			tracks := make([]*library.Track, 0, len(args))
			for _, path := range args {
				track, _, err := importer.ImportFile(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("catalogue %s: %w", path, err)
				}
				tracks = append(tracks, track)
			}

			orch, err := sess.orchestrator(progressPrinter(cmd, ctx.JSONMode()))
			if err != nil {
				return err
			}
			result := orch.RunBatch(cmd.Context(), tracks, identification.WithKind(kindIdentify))
			return writeBatchResult(cmd, ctx.JSONMode(), result)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing metadata even when it is complete")
	cmd.Flags().BoolVar(&noOrganize, "no-organize", false, "Update metadata but leave files where they are")
	return cmd
}

// requirePreflight fails when any readiness check fails.
func requirePreflight(cmd *cobra.Command, sess *session) error {
	failed := preflight.Failed(preflight.RunAll(cmd.Context(), sess.cfg))
	if len(failed) == 0 {
		return nil
	}
	problems := make([]string, 0, len(failed))
	for _, r := range failed {
		problems = append(problems, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return errors.New("preflight failed:\n  " + strings.Join(problems, "\n  "))
}

// progressPrinter rewrites a single progress line on an interactive stderr.
func progressPrinter(cmd *cobra.Command, jsonMode bool) identification.ProgressFunc {
	errOut := cmd.ErrOrStderr()
	if jsonMode || !shouldColorize(errOut) {
		return nil
	}
	return func(stats identification.ScanStats) {
		fmt.Fprintf(errOut, "\r  %d/%d processed, %d identified, %d errored", stats.Processed, stats.Total, stats.Identified, stats.Errored)
		if stats.Processed == stats.Total {
			io.WriteString(errOut, "\n")
		}
	}
}
