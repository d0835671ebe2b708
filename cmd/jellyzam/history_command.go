package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jellyzam/internal/library"
)

type runView struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Success      bool      `json:"success"`
	Cancelled    bool      `json:"cancelled"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Total        int       `json:"total"`
	Processed    int       `json:"processed"`
	Identified   int       `json:"identified"`
	Organized    int       `json:"organized"`
	Errored      int       `json:"errored"`
	StartedAt    time.Time `json:"started_at"`
	DurationMS   int64     `json:"duration_ms"`
}

func newRunView(run library.RunRecord) runView {
	return runView{
		ID:           run.ID,
		Kind:         run.Kind,
		Success:      run.Success,
		Cancelled:    run.Cancelled,
		ErrorMessage: run.ErrorMessage,
		Total:        run.Total,
		Processed:    run.Processed,
		Identified:   run.Identified,
		Organized:    run.Organized,
		Errored:      run.Errored,
		StartedAt:    run.StartedAt,
		DurationMS:   run.Duration.Milliseconds(),
	}
}

func runStatus(run library.RunRecord) string {
	switch {
	case !run.Success:
		return "failed"
	case run.Cancelled:
		return "cancelled"
	default:
		return "ok"
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent identification runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			runs, err := sess.store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Kind,
					runStatus(run),
					fmt.Sprintf("%d/%d", run.Processed, run.Total),
					fmt.Sprint(run.Identified),
					fmt.Sprint(run.Organized),
					fmt.Sprint(run.Errored),
					run.Duration.Round(time.Second).String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Kind", "Status", "Processed", "Identified", "Organized", "Errored", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	return cmd
}
