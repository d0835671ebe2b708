// Package logging assembles structured slog loggers and formatting helpers used
// across jellyzam.
//
// It owns the console/JSON handlers, routes a JSON copy of every record to a
// rotated log file, and exposes context-aware helpers so pipeline code can tag
// log lines with run IDs, track IDs, and stages. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
