package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Filter selects log lines. Empty fields match everything.
type Filter struct {
	// Level is the minimum level name ("debug", "info", "warn", "error").
	Level     string
	Component string
	RunID     string
}

type record struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	RunID     string `json:"run_id"`
}

// Compile validates the filter and returns a matcher. Lines that are not JSON
// records pass only when the filter has no constraints.
func (f Filter) Compile() (func(line string) bool, error) {
	level := strings.TrimSpace(f.Level)
	component := strings.TrimSpace(f.Component)
	runID := strings.TrimSpace(f.RunID)
	if level == "" && component == "" && runID == "" {
		return func(string) bool { return true }, nil
	}

	var minLevel slog.Level
	if level != "" {
		if err := minLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level filter: %w", err)
		}
	}
	return func(line string) bool {
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return false
		}
		if level != "" {
			var got slog.Level
			if err := got.UnmarshalText([]byte(rec.Level)); err != nil || got < minLevel {
				return false
			}
		}
		if component != "" && !strings.EqualFold(rec.Component, component) {
			return false
		}
		if runID != "" && !strings.HasPrefix(rec.RunID, runID) {
			return false
		}
		return true
	}, nil
}

// Apply returns the lines that pass match.
func Apply(lines []string, match func(string) bool) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if match(line) {
			out = append(out, line)
		}
	}
	return out
}
