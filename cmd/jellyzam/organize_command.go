package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"jellyzam/internal/organizer"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var basePath string

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Move catalogued tracks into the artist/album layout without recognition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			base := sess.cfg.Organize.BasePath
			if cmd.Flags().Changed("base-path") {
				base = strings.TrimSpace(basePath)
			}

			engine := sess.organizer()
			lock, err := engine.LockBasePath(base)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			tracks, err := sess.store.Tracks(cmd.Context())
			if err != nil {
				return fmt.Errorf("list tracks: %w", err)
			}
			results := engine.OrganizeAll(cmd.Context(), tracks, base)

			var cleanup *organizer.CleanupReport
			if sess.cfg.Organize.CleanupEmptyDirs && base != "" && cmd.Context().Err() == nil {
				report := engine.CleanupEmptyDirectories(cmd.Context(), base)
				cleanup = &report
			}

			moved := make([][]string, 0, len(results))
			for source, final := range results {
				if source != final {
					moved = append(moved, []string{source, final})
				}
			}
			sort.Slice(moved, func(i, j int) bool { return moved[i][0] < moved[j][0] })

			if ctx.JSONMode() {
				payload := map[string]any{
					"base_path": base,
					"visited":   len(results),
					"moved":     len(moved),
					"paths":     results,
				}
				if cleanup != nil {
					payload["removed_dirs"] = cleanup.Removed
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if len(moved) > 0 {
				fmt.Fprintln(out, renderTable([]string{"From", "To"}, moved, nil))
			}
			fmt.Fprintf(out, "Visited %d tracks, moved %d\n", len(results), len(moved))
			if cleanup != nil {
				fmt.Fprintf(out, "Removed %d empty directories\n", len(cleanup.Removed))
			}
			return cmd.Context().Err()
		},
	}

	cmd.Flags().StringVar(&basePath, "base-path", "", "Organize into this directory instead of organize.base_path (empty: next to each file)")
	return cmd
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup [dir]",
		Short: "Delete empty directories below a directory (default: organize.base_path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			dir := sess.cfg.Organize.BasePath
			if len(args) == 1 {
				dir = strings.TrimSpace(args[0])
			}
			if dir == "" {
				return fmt.Errorf("no directory given and organize.base_path is empty")
			}

			report := sess.organizer().CleanupEmptyDirectories(cmd.Context(), dir)
			if ctx.JSONMode() {
				removed := report.Removed
				if removed == nil {
					removed = []string{}
				}
				return writeJSON(cmd, map[string]any{
					"dir":     dir,
					"scanned": report.Scanned,
					"removed": removed,
					"failed":  report.Failed,
				})
			}
			out := cmd.OutOrStdout()
			for _, path := range report.Removed {
				fmt.Fprintf(out, "removed %s\n", path)
			}
			fmt.Fprintf(out, "Scanned %d directories, removed %d, failed %d\n", report.Scanned, len(report.Removed), report.Failed)
			return nil
		},
	}
}
