package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jellyzam/internal/identification"
)

// kindFull labels runs over the whole catalog.
const kindFull = "full"

func newScanCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var initial bool
	var force bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Identify catalogued tracks (default: only tracks with incomplete metadata)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && initial {
				return errors.New("--all and --initial are mutually exclusive")
			}
			if force && !initial {
				return errors.New("--force only applies to --initial")
			}
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := requirePreflight(cmd, sess); err != nil {
				return err
			}
			orch, err := sess.orchestrator(progressPrinter(cmd, ctx.JSONMode()))
			if err != nil {
				return err
			}

			switch {
			case initial:
				result, ran := orch.InitialScan(cmd.Context(), sess.store, sess.store, force)
				if !ran {
					if ctx.JSONMode() {
						return writeJSON(cmd, map[string]any{"skipped": true})
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Initial scan skipped (already completed or disabled; use --force to rerun)")
					return nil
				}
				return writeBatchResult(cmd, ctx.JSONMode(), result)
			case all:
				tracks, err := sess.store.Tracks(cmd.Context())
				if err != nil {
					return fmt.Errorf("list tracks: %w", err)
				}
				result := orch.RunBatch(cmd.Context(), tracks, identification.WithKind(kindFull))
				return writeBatchResult(cmd, ctx.JSONMode(), result)
			default:
				_, result := orch.ProcessUnknown(cmd.Context(), sess.store)
				return writeBatchResult(cmd, ctx.JSONMode(), result)
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Process every catalogued track")
	cmd.Flags().BoolVar(&initial, "initial", false, "Run the one-time initial library scan")
	cmd.Flags().BoolVar(&force, "force", false, "Rerun the initial scan even if it already completed")
	return cmd
}
