package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jellyzam/internal/identification"
	"jellyzam/internal/organizer"
	"jellyzam/internal/services"
)

type outcomeView struct {
	TrackID    string  `json:"track_id"`
	Path       string  `json:"path"`
	State      string  `json:"state"`
	Success    bool    `json:"success"`
	Identified bool    `json:"identified"`
	Organized  bool    `json:"organized"`
	Confidence float64 `json:"confidence"`
	Fields     string  `json:"fields,omitempty"`
	Error      string  `json:"error,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type batchView struct {
	RunID        string        `json:"run_id"`
	Kind         string        `json:"kind"`
	Success      bool          `json:"success"`
	Cancelled    bool          `json:"cancelled"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Total        int           `json:"total"`
	Processed    int           `json:"processed"`
	Identified   int           `json:"identified"`
	Organized    int           `json:"organized"`
	Errored      int           `json:"errored"`
	DurationMS   int64         `json:"duration_ms"`
	Tracks       []outcomeView `json:"tracks"`
}

func newBatchView(result identification.BatchResult) batchView {
	view := batchView{
		RunID:        result.RunID,
		Kind:         result.Kind,
		Success:      result.Success,
		Cancelled:    result.Cancelled,
		ErrorMessage: result.ErrorMessage,
		Total:        result.Stats.Total,
		Processed:    result.Stats.Processed,
		Identified:   result.Stats.Identified,
		Organized:    result.Stats.Organized,
		Errored:      result.Stats.Errored,
		DurationMS:   result.Stats.Duration.Milliseconds(),
		Tracks:       make([]outcomeView, 0, len(result.Outcomes)),
	}
	for _, outcome := range result.Outcomes {
		view.Tracks = append(view.Tracks, newOutcomeView(outcome))
	}
	return view
}

func newOutcomeView(outcome identification.TrackOutcome) outcomeView {
	view := outcomeView{
		TrackID:    outcome.TrackID,
		Path:       outcome.Path,
		State:      string(outcome.State),
		Success:    outcome.Success,
		Identified: outcome.Identified,
		Organized:  outcome.Organized,
		Confidence: outcome.Selection.Confidence,
		Fields:     strings.Join(outcome.Reconcile.Fields, ","),
	}
	if outcome.Err != nil {
		view.Error = outcome.Err.Error()
		view.Reason = services.FailureReason(outcome.Err)
	}
	return view
}

// outcomeLabel is the one-word result shown in tables.
func outcomeLabel(outcome identification.TrackOutcome) string {
	switch {
	case outcome.Cancelled():
		return "cancelled"
	case !outcome.Success:
		return "failed"
	case outcome.AlreadyComplete:
		return "complete"
	case outcome.Identified:
		return "identified"
	default:
		return "unmatched"
	}
}

func writeBatchResult(cmd *cobra.Command, jsonMode bool, result identification.BatchResult) error {
	if jsonMode {
		if err := writeJSON(cmd, newBatchView(result)); err != nil {
			return err
		}
	} else {
		renderBatchResult(cmd.OutOrStdout(), result)
	}
	if !result.Success {
		return errors.New(result.ErrorMessage)
	}
	return nil
}

func renderBatchResult(out io.Writer, result identification.BatchResult) {
	if len(result.Outcomes) > 0 {
		rows := make([][]string, 0, len(result.Outcomes))
		for _, outcome := range result.Outcomes {
			detail := ""
			switch {
			case outcome.Err != nil:
				detail = services.FailureReason(outcome.Err)
			case outcome.Plan.Status == organizer.StatusMoved:
				detail = "moved"
			case outcome.Plan.Status == organizer.StatusSkippedFailed:
				detail = "move failed"
			}
			confidence := ""
			if outcome.Selection.Confidence > 0 {
				confidence = fmt.Sprintf("%.2f", outcome.Selection.Confidence)
			}
			rows = append(rows, []string{outcome.Path, outcomeLabel(outcome), confidence, detail})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Path", "Result", "Confidence", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	stats := result.Stats
	status := "completed"
	switch {
	case !result.Success:
		status = "failed: " + result.ErrorMessage
	case result.Cancelled:
		status = "cancelled"
	}
	fmt.Fprintf(out, "Run %s (%s) %s\n", shortID(result.RunID), result.Kind, status)
	fmt.Fprintf(out, "  processed %d/%d, identified %d, organized %d, errored %d in %s\n",
		stats.Processed, stats.Total, stats.Identified, stats.Organized, stats.Errored,
		stats.Duration.Round(time.Millisecond))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
