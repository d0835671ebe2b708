package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jellyzam/internal/config"
	"jellyzam/internal/identification"
	"jellyzam/internal/library"
	"jellyzam/internal/preflight"
)

type statusView struct {
	ConfigPath string             `json:"config_path"`
	Catalog    catalogStatus      `json:"catalog"`
	Checks     []preflight.Result `json:"checks"`
	LastRun    *runView           `json:"last_run,omitempty"`
}

type catalogStatus struct {
	Path        string `json:"path"`
	Tracks      int    `json:"tracks"`
	Incomplete  int    `json:"incomplete"`
	InitialScan bool   `json:"initial_scan_completed"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog, configuration and service health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			cfg := sess.cfg
			view := statusView{ConfigPath: ctx.configPath()}
			view.Catalog, err = catalogSummary(cmd, sess.store)
			if err != nil {
				return err
			}
			view.Checks = statusChecks(cmd, cfg)
			if runs, err := sess.store.Runs(cmd.Context(), 1); err == nil && len(runs) > 0 {
				last := newRunView(runs[0])
				view.LastRun = &last
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Catalog", colorize)
			lines = append(lines,
				renderStatusLine("Database", statusInfo, view.Catalog.Path, colorize),
				renderStatusLine("Tracks", statusInfo, fmt.Sprintf("%d (%d with incomplete metadata)", view.Catalog.Tracks, view.Catalog.Incomplete), colorize),
				renderStatusLine("Initial scan", statusInfo, completedLabel(view.Catalog.InitialScan), colorize),
			)
			if view.LastRun != nil {
				run := view.LastRun
				kind := statusOK
				if !run.Success {
					kind = statusError
				}
				lines = append(lines, renderStatusLine("Last run", kind,
					fmt.Sprintf("%s %s, %d/%d processed, %d identified, %d errored",
						run.StartedAt.Local().Format("2006-01-02 15:04"), run.Kind, run.Processed, run.Total, run.Identified, run.Errored),
					colorize))
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Services", colorize)...)
			for _, check := range view.Checks {
				lines = append(lines, renderStatusLine(check.Name, checkKind(check), check.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func catalogSummary(cmd *cobra.Command, store *library.Store) (catalogStatus, error) {
	summary := catalogStatus{Path: store.Path()}
	tracks, err := store.Tracks(cmd.Context())
	if err != nil {
		return summary, fmt.Errorf("list tracks: %w", err)
	}
	summary.Tracks = len(tracks)
	for _, track := range tracks {
		if !identification.HasCompleteMetadata(track) {
			summary.Incomplete++
		}
	}
	summary.InitialScan, err = store.InitialScanCompleted(cmd.Context())
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func statusChecks(cmd *cobra.Command, cfg *config.Config) []preflight.Result {
	return []preflight.Result{
		preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		preflight.CheckRecognition(cfg.Recognition),
		preflight.CheckOrganizeFromConfig(cfg),
		preflight.CheckJellyfinFromConfig(cmd.Context(), cfg),
		preflight.CheckNotificationsFromConfig(cfg),
	}
}

func checkKind(result preflight.Result) statusKind {
	switch {
	case !result.Passed:
		return statusError
	case result.Detail == "Disabled":
		return statusWarn
	default:
		return statusOK
	}
}

func completedLabel(done bool) string {
	if done {
		return "completed"
	}
	return "pending"
}
